// Package session holds terminal sessions and their command history.
//
// A Store owns every live session. The map lock is held only to look up,
// insert or remove a session; each session carries its own mutex for cwd and
// history updates, so commands in different sessions never contend and no
// lock is held while a command runs.
//
// Components:
//   - Store: create, lookup, create-or-get (Ensure), delete, eviction
//   - Snapshot: deep copy of a session handed to callers
//   - Transcript: the saved-session text format, optionally zstd-compressed
//
// Eviction is off by default. With Options.TTL set, idle sessions are
// removed by Sweep (driven by Run); with Options.MaxSessions set, creating a
// session beyond the cap evicts the least recently used one.
//
// Example Usage:
//
//	store := session.NewStore(session.Options{Home: home}, logger)
//	snap := store.Create()
//	_ = store.Append(snap.ID, session.Entry{Command: "ls", Timestamp: time.Now()})
package session
