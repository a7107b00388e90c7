// Package shutdown coordinates graceful termination of long-running
// commands.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("metrics", srv.Shutdown)
//	ctx := h.Context(context.Background()) // cancelled on SIGINT/SIGTERM
//	go loop(ctx)
//	err := h.Wait(ctx)
package shutdown
