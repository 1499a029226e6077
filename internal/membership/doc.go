// Package membership keeps the in-process roster view and runs membership
// changes against it.
//
// A student references at most one class. Changes go through the
// Coordinator, which moves each change through a small state machine:
//
//	Idle -> ConflictCheck -> AwaitingResolution -> Idle
//	Idle -> ConflictCheck -> Applying -> Committed -> Idle
//	Idle -> ConflictCheck -> Applying -> RollingBack -> Idle
//
// Adds are checked for students already in another class; those are
// returned as a *ConflictError and nothing changes until the caller
// resubmits without them. Accepted changes are applied to the Store before
// the Persister is called, so readers see them immediately. If persisting
// fails the Store is restored from the Snapshot taken just before the
// change, and the caller gets a *RemoteError.
//
// Changes are serialized by the Coordinator. Store reads take a read lock
// only and never wait for a persist call.
package membership
