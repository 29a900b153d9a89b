package model

import "time"

// User represents a staff account as stored in the `User` table.
// Users review applicants; the Active flag gates sign-in to the back
// office but an inactive user still exists and may stay assigned.
//
// Fields:
//  ID        – primary key identifier.
//  Email     – unique address.
//  FirstName – given name.
//  LastName  – family name, used for ordering.
//  Active    – whether the account may sign in.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    `json:"id"`         // User.id
	Email     string    `json:"email"`      // User.email
	FirstName string    `json:"first_name"` // User.first_name
	LastName  string    `json:"last_name"`  // User.last_name
	Active    bool      `json:"active"`     // User.active
	CreatedAt time.Time `json:"created_at"` // User.created_at
}

// UserUpdate carries the optional fields of an admin edit.  Nil fields are
// left unchanged.
type UserUpdate struct {
	Active    *bool
	FirstName *string
	LastName  *string
}

// Empty reports whether the update would change nothing.
func (u UserUpdate) Empty() bool {
	return u.Active == nil && u.FirstName == nil && u.LastName == nil
}
