package model

// User is the acting identity produced by the authentication collaborator.
type User interface {
	IsGuest() bool
	// Record returns the backing entity, nil for guests.
	Record() *Record
}

type guest struct{}

func (guest) IsGuest() bool   { return true }
func (guest) Record() *Record { return nil }

// Guest is the unauthenticated identity.
func Guest() User { return guest{} }

type authUser struct{ rec *Record }

func (u authUser) IsGuest() bool   { return false }
func (u authUser) Record() *Record { return u.rec }

// AuthenticatedUser wraps a login-type record as the acting identity.
func AuthenticatedUser(rec *Record) User {
	if rec == nil {
		return Guest()
	}
	return authUser{rec: rec}
}
