// Package server assembles AstraTerm: it builds the component graph from
// configuration, mounts the REST and WebSocket adapters on a gin engine,
// and runs the HTTP server with graceful shutdown.
//
// Example Usage:
//
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//		return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
package server
