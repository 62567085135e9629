// Package notify carries user-facing notifications between the task store,
// the reminder timer and whatever presents them.
//
// Events are JSON-encoded onto an in-process message bus. The subject of each
// message is the event kind, so subscribers can listen to one kind or to a
// family of kinds with a trailing wildcard:
//
//	b := notify.NewMemoryBus(notify.DefaultConfig())
//	sub, _ := b.Subscribe("task.*")
//	n := notify.NewNotifier(b)
//	n.Publish(ctx, notify.TaskAdded("id-1", "Write report"))
//
//	for msg := range sub.Messages() {
//	    ev, _ := notify.Decode(msg)
//	    fmt.Println(ev.Message)
//	}
//
// Delivery is non-blocking. A subscriber whose buffer is full misses the
// message; publishers are never held up by slow consumers.
package notify
