// Package tasks holds the task entity and the session task store.
//
// The Store is the single owner of every task in a session. Callers never
// get a reference into its internals: Get and Snapshot return deep copies,
// and the only way to change a task is through Add, SetStatus and Remove.
//
// # Basic Usage
//
//	store := tasks.NewStore()
//
//	id, err := store.Add(ctx, "Write report", "", nil)
//	if err != nil {
//	    // errors.Is(err, tasks.ErrEmptyTitle)
//	}
//
//	err = store.SetStatus(ctx, id, tasks.StatusCompleted)
//
//	for _, t := range store.Snapshot() {
//	    fmt.Println(t.Title, t.Status.Label())
//	}
//
// # Notifications
//
// A Store configured WithPublisher emits task.added, task.completed and
// task.deleted events. task.completed fires only when a task moves into
// completed from another status. Publishing is best effort and never fails
// the mutation that triggered it.
//
// # Search
//
// WithIndexer attaches a full-text index that is kept in step with every
// mutation. Search returns matching tasks in store order.
//
// # Concurrency
//
// All methods are safe for concurrent use. Each mutation is atomic with
// respect to Snapshot.
package tasks
