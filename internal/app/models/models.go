package models

import (
	"context"
	"fmt"
)

// IdentityKind tags the variant held by an Identity
type IdentityKind string

const (
	IdentityAdmin   IdentityKind = "admin"
	IdentityStudent IdentityKind = "student"
)

// Identity is the result of authentication. It is passed explicitly to the
// operations that need it and never kept in package state.
type Identity struct {
	Kind      IdentityKind `json:"kind"`
	StudentID int64        `json:"studentId,omitempty"`
}

// AdminIdentity returns the Admin variant
func AdminIdentity() Identity {
	return Identity{Kind: IdentityAdmin}
}

// StudentIdentity returns the Student(id) variant
func StudentIdentity(id int64) Identity {
	return Identity{Kind: IdentityStudent, StudentID: id}
}

func (i Identity) IsAdmin() bool {
	return i.Kind == IdentityAdmin
}

// IsStudent reports whether i is Student(id) for a valid id
func (i Identity) IsStudent() bool {
	return i.Kind == IdentityStudent && i.StudentID > 0
}

// Valid reports whether i is one of the two variants
func (i Identity) Valid() bool {
	return i.IsAdmin() || i.IsStudent()
}

func (i Identity) String() string {
	switch {
	case i.IsAdmin():
		return "Admin"
	case i.IsStudent():
		return fmt.Sprintf("Student(%d)", i.StudentID)
	default:
		return "Anonymous"
	}
}

type identityKey struct{}

// WithIdentity stores the identity on a request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity placed by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.Valid()
}
