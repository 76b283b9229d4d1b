package models

import "time"

// Role partitions the three principals of the portal.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCentre  Role = "CENTRE"
	RoleStudent Role = "STUDENT"
)

// User is a centre staff account. One user effectively represents one centre
// for login purposes.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CentreCode   string    `db:"centre_code" json:"centre_code"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Admin is the single privileged account row seeded from configuration.
// Login compares against the configured values first; this row's hash only
// matters after an OTP password reset.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
