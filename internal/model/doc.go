// Package model defines the roster domain types shared by every layer.
//
// Students carry a single nullable class reference; classes never store their
// members. Request types validate themselves through go-playground/validator
// struct tags (see validate.go) and report failures as []FieldError, which the
// handler layer renders as RFC 9457 Problem Details (errors.go).
package model
