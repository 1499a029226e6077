package model

// ConflictEntry describes a student that cannot be added to a class because
// it already references a different one.
type ConflictEntry struct {
	StudentID        string `json:"student_id"`
	StudentName      string `json:"student_name,omitempty"`
	CurrentClassID   string `json:"current_class_id"`
	CurrentClassName string `json:"current_class_name"`
}

// UnknownClassName labels a conflicting class whose name could not be
// resolved.
const UnknownClassName = "Unknown Class"

// UpdateMembershipRequest adds and removes students from one class in a
// single persisted change.
type UpdateMembershipRequest struct {
	AddIDs           []string `json:"add_ids,omitempty" validate:"max=500,dive,notblank"`
	RemoveIDs        []string `json:"remove_ids,omitempty" validate:"max=500,dive,notblank"`
	ExcludeConflicts bool     `json:"exclude_conflicts,omitempty"`
	ExpectedVersion  string   `json:"expected_version,omitempty" validate:"omitempty,hexadecimal,len=64"`
}

// Validate checks the request fields.
func (r *UpdateMembershipRequest) Validate() []FieldError {
	errs := validateStruct(r)
	if len(r.AddIDs) == 0 && len(r.RemoveIDs) == 0 {
		errs = append(errs, FieldError{Field: "add_ids", Message: "select at least one student"})
	}
	return errs
}

// CheckConflictsRequest asks which of the given students would conflict if
// added to a class.
type CheckConflictsRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=500,dive,notblank"`
}

// Validate checks the request fields.
func (r *CheckConflictsRequest) Validate() []FieldError {
	return validateStruct(r)
}

// CheckConflictsResponse lists conflicts for a prospective add.
type CheckConflictsResponse struct {
	Conflicts []ConflictEntry `json:"conflicts"`
}

// ClassRoster is a class with its current members. Version identifies the
// roster state the response was built from and can be sent back as
// expected_version.
type ClassRoster struct {
	Class   Class     `json:"class"`
	Members []Student `json:"members"`
	Version string    `json:"version"`
}

// MutationOutcome reports how a membership change resolved.
type MutationOutcome struct {
	MutationID string   `json:"mutation_id"`
	State      string   `json:"state"`
	ClassID    string   `json:"class_id"`
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
	Excluded   []string `json:"excluded,omitempty"`
}

// UpdateMembershipResponse is returned after a committed membership change.
type UpdateMembershipResponse struct {
	Outcome MutationOutcome `json:"outcome"`
	Roster  ClassRoster     `json:"roster"`
}

// SyncResponse reports a roster refetch.
type SyncResponse struct {
	Students int    `json:"students"`
	Version  string `json:"version"`
}
