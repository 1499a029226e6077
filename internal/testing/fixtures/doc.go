// Package fixtures provides test data factories for integration tests.
//
// Each factory method inserts an entity with sensible defaults, customized
// through option functions:
//
//	f := fixtures.New(tdb.DB)
//	class := f.CreateClass(t)
//	s := f.CreateStudent(t, fixtures.InClass(class.ID))
package fixtures
