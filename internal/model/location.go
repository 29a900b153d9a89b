package model

// Location is an office or site that applicants can apply to.  It
// corresponds to a row in the `Location` table; names are unique.
// Applicants are linked to locations through the `AppliedLoc` table, which
// has no struct of its own because it carries only the two foreign keys.
type Location struct {
	ID   uint64 `json:"id"`   // Location.id
	Name string `json:"name"` // Location.name
}
