// Package database provides the SurrealDB connection used as the roster's
// system of record.
//
// The Database interface offers three query methods:
//   - Query: one {status, result} entry per statement
//   - QueryOne: the first record of the first statement
//   - Execute: no return value (for CREATE/UPDATE/DELETE mutations)
//
// Multi-statement writes go through AtomicBatch (transaction.go), which
// sends every statement in a single BEGIN/COMMIT block.
//
// # Error Handling
//
// SurrealDB failures are mapped onto sentinels:
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique index violation
//   - ErrConnection: Database connection issues
//   - ErrQuery: Query execution failures
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // Handle missing record
//	}
//
// # Usage Example
//
//	db := database.NewSurrealDB(cfg)
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//
//	result, err := db.QueryOne(ctx, "SELECT * FROM type::record($id)", map[string]interface{}{"id": classID})
package database
