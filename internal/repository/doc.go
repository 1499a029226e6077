// Package repository implements the SurrealDB data access layer for students
// and CRC classes.
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database.Database
//   - Methods implement specific data operations (Create, GetByID, Update, Delete, etc.)
//   - Parameterized SurrealQL with type::record() for safe ID handling
//   - time::now() for automatic timestamps
//
// Class membership is stored only on the student (crc_class link).
// StudentRepository.PersistMembership writes a whole membership change in
// one transaction and refuses to move a student out of a different class.
// ClassRepository.GroupName resolves class display names for conflict
// reports.
package repository
