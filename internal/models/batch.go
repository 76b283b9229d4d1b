package models

import "time"

// Batch is a named cohort of students under one centre. CentreName is
// denormalised from the centre at creation time and can go stale if the
// centre is renamed or deleted concurrently; accepted, not remediated.
type Batch struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	CentreCode string    `db:"centre_code" json:"centre_code"`
	CentreName string    `db:"centre_name" json:"centre_name"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// BatchFilter captures search parameters for listing batches.
type BatchFilter struct {
	CentreCode string
	Active     *bool
	Page       int
	PageSize   int
}
