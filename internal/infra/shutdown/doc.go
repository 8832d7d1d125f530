// Package shutdown runs ordered cleanup when the server is asked to stop.
//
// Hooks registered with OnShutdown run in reverse registration order,
// so the HTTP listener stops before the store it reads from is closed.
//
//	h := shutdown.NewHandler(15 * time.Second)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("storage", func(context.Context) error { return kv.Close() })
//	err := h.Wait(ctx)
package shutdown
