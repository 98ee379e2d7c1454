// Package event provides a pub-sub event bus for decoupled communication
// between the wizard core and its observers.
//
// The wizard state machine publishes a transition event after each committed
// transition, the job status monitor publishes poll results, and the session
// publishes submission outcomes. The terminal UI and the session log subscribe
// without either side importing the other.
//
// # Main Types
//
//   - [Event]: interface providing EventType() and Timestamp()
//   - [Bus]: synchronous dispatcher, safe for concurrent use
//   - [Handler]: func(Event)
//
// # Event Naming
//
// Event types follow "category.action": "step.confirmed", "step.modified",
// "tab.updated", "wizard.hydrated", "wizard.reset", "plugin.resolved",
// "plugin.unavailable", "job.submitted", "job.status", "job.finished",
// "job.failed".
//
// # Usage
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeStepModified, func(e event.Event) {
//	    m := e.(event.StepModifiedEvent)
//	    logger.Info("downstream reset", "step", m.StepID, "invalidated", m.Invalidated)
//	})
//
// Handlers run synchronously on the publishing goroutine. A handler must not
// call back into the publisher while it holds its own lock; the wizard machine
// publishes only after releasing its mutex.
package event
