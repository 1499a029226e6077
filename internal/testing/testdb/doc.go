// Package testdb provides isolated SurrealDB databases for integration tests.
//
// Each TestDB gets a unique namespace with every migration under
// migrations/ applied, so tests run real queries against a real database.
// When no SurrealDB is reachable (or -short is set) the test is skipped
// rather than failed.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    result, err := tdb.DB.Query(tdb.Ctx(), "SELECT * FROM student", nil)
//	}
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER
// and TEST_DB_PASSWORD. CRC_ROOT points at the repository root when tests
// run from an unexpected working directory.
package testdb
