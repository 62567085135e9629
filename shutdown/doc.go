// Package shutdown coordinates the orderly teardown of a session.
//
// Components register a Handler with a phase. On Shutdown, phases run in
// ascending order; handlers sharing a phase run concurrently. A session
// typically registers:
//
//   - 10: reminder timer (stop firing before anything it reads goes away)
//   - 20: search index
//   - 30: notification bus (closes subscriber channels last)
//
// # Usage
//
//	coord := shutdown.NewCoordinator(shutdown.DefaultConfig())
//	coord.HandleSignals() // SIGTERM, SIGINT
//
//	coord.RegisterWithPhase("bus", bus, 30)
//	coord.RegisterWithPhase("reminder", timer, 10)
//
//	<-coord.Done()
//
// Shutdown runs exactly once. Later calls return the first call's error.
package shutdown
