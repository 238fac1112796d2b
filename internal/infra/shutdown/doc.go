// Package shutdown coordinates graceful termination of the mock endpoint.
//
// Components register named hooks; on SIGINT/SIGTERM (or when the parent
// context ends) the hooks run in reverse registration order under a
// shared deadline.
//
//	h := shutdown.NewHandler(10*time.Second, log)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
