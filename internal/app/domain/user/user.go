// Package user defines the account model.
package user

import "time"

// User is a registered account. Passwords are stored as given; there is no
// hashing step between the registration form and the users table.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
