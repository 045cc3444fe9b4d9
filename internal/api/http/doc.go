// Package http provides the REST adapter for AstraTerm.
//
// Handlers translate JSON requests into controller calls and map domain
// errors onto status codes. Command failures are never HTTP errors: a
// command that exits nonzero is still a 200 carrying the Result.
//
// Endpoints:
//   - Service: / and /health, /api/config, /api/stats
//   - Sessions: /api/sessions, /api/sessions/:id (+ /transcript, /replay, /history)
//   - Commands: /api/command
//   - Collaborators: /api/ai, /api/github, /api/tools, /api/archive/search
//
// Example Usage:
//
//	h := http.NewHandlers(http.Deps{Controller: ctrl, Tools: reg})
//	h.Register(router)
package http
