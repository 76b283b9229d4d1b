package models

import "time"

// HallTicketStatus tracks a student's admission request. The only legal
// transitions are NOT_APPLIED → PENDING (apply) and PENDING → APPROVED
// (auto or manual approval); PENDING is never skipped.
type HallTicketStatus string

const (
	HallTicketNotApplied HallTicketStatus = "NOT_APPLIED"
	HallTicketPending    HallTicketStatus = "PENDING"
	HallTicketApproved   HallTicketStatus = "APPROVED"
)

// Student represents a learner registered under a centre and batch.
type Student struct {
	ID                   string           `db:"id" json:"id"`
	RegNo                string           `db:"reg_no" json:"reg_no"`
	FullName             string           `db:"full_name" json:"full_name"`
	BirthDate            time.Time        `db:"birth_date" json:"birth_date"`
	Email                string           `db:"email" json:"email"`
	Phone                string           `db:"phone" json:"phone"`
	CentreCode           string           `db:"centre_code" json:"centre_code"`
	BatchID              string           `db:"batch_id" json:"batch_id"`
	AppliedForHallTicket bool             `db:"applied_for_hall_ticket" json:"applied_for_hall_ticket"`
	HallTicketStatus     HallTicketStatus `db:"hall_ticket_status" json:"hall_ticket_status"`
	HallTicketAppliedAt  *time.Time       `db:"hall_ticket_applied_at" json:"hall_ticket_applied_at,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentDetail contains student information with batch/centre context.
type StudentDetail struct {
	Student
	BatchName  *string `db:"batch_name" json:"batch_name,omitempty"`
	CentreName *string `db:"centre_name" json:"centre_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search           string
	CentreCode       string
	BatchID          string
	HallTicketStatus HallTicketStatus
	Page             int
	PageSize         int
	SortBy           string
	SortOrder        string
}

// Qualification is one prior-education record attached to a student.
type Qualification struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id"`
	Education string `db:"education" json:"education"`
	Board     string `db:"board" json:"board"`
	Year      string `db:"year" json:"year"`
	Marks     string `db:"marks" json:"marks"`
}
