package domain

// SubjectType differentiates users vs staff tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeStaff SubjectType = "STAFF"
)

// Actor is the authenticated identity performing an operation. The
// lifecycle service takes it explicitly on every call; there is no
// ambient session state.
type Actor struct {
	ID    string
	Name  string
	Email string
	Staff bool
	Admin bool
}

// Authenticated reports whether the actor carries a valid identity.
func (a *Actor) Authenticated() bool {
	return a != nil && a.ID != ""
}
