// Package service implements the business logic layer for the CRC roster API.
//
// The service package holds the roster (an in-process view of every
// student's class reference), orchestrates membership changes through the
// membership coordinator, and manages classes and student records.
// Services are the primary abstraction between HTTP handlers and data
// access.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Requests arrive already validated by the handler layer
//   - Errors are returned as sentinel errors or wrapped errors for context
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define their own repository interfaces, allowing:
//
//   - Easy mocking for unit tests
//   - Decoupling from specific database implementations
//   - Clear contracts for data access requirements
//
// # Error Handling
//
// Services return domain-specific errors defined as package-level variables:
//
//	var (
//	    ErrClassNotFound = errors.New("class not found")
//	    ErrClassNotEmpty = errors.New("class still has students")
//	)
//
// Membership changes additionally return the typed errors of the membership
// package (*membership.ValidationError, *membership.ConflictError and
// *membership.RemoteError), which carry structured data for the response.
//
// # Example Usage
//
//	roster := NewRosterService(RosterServiceConfig{
//	    StudentRepo: studentRepository,
//	    ClassRepo:   classRepository,
//	    Observer:    hub,
//	})
//	if _, err := roster.Sync(ctx); err != nil {
//	    return err
//	}
//	resp, err := roster.UpdateMembership(ctx, classID, model.UpdateMembershipRequest{
//	    AddIDs: []string{"student:s1"},
//	})
package service
