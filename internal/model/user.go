// Package model defines domain entities for the application.
package model

import "time"

// User is a registered account that owns exercises.
// Users are never updated or deleted once created.
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"-"`
}
