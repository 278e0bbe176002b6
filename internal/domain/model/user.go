package model

import "time"

// User represents a staff member operating the order screens.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
