// Package ws provides the streaming terminal over WebSocket.
//
// A connection binds to one session for its lifetime. Commands arrive as
// JSON frames and are executed in order through the terminal controller;
// each produces one output frame.
//
// Message Types (Client → Server):
//   - {"command": "..."}: run a command; empty commands are ignored
//
// Message Types (Server → Client):
//   - welcome: sent once on connect, carries session_id
//   - output: command, output, error, exit_code
//   - exit: farewell after exit or quit, then the connection closes
//   - error: malformed frame or internal failure, then the connection closes
//
// Closing the socket cancels the command in flight.
//
// Example Usage:
//
//	handler := ws.NewHandler(controller, ws.Options{Logger: logger})
//	router.GET("/ws", handler.HandleConnection)
//	router.GET("/ws/:session_id", handler.HandleConnection)
package ws
