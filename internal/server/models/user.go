// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash holds a bcrypt digest and is
// never sent to clients.
type User struct {
	ID           int64     `db:"id"`
	UserName     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
