package models

import "time"

// ExamAttempt tags a mark row as a first sitting or a supplementary one.
type ExamAttempt string

const (
	AttemptRegular ExamAttempt = "REGULAR"
	AttemptSupply  ExamAttempt = "SUPPLY"
)

// ExamMark is one subject score for one attempt. The backup export emits one
// CSV row per ExamMark.
type ExamMark struct {
	ID        string      `db:"id" json:"id"`
	StudentID string      `db:"student_id" json:"student_id"`
	Subject   string      `db:"subject" json:"subject"`
	Attempt   ExamAttempt `db:"attempt" json:"attempt"`
	Marks     int         `db:"marks" json:"marks"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// ExamMarkRow is the flattened export shape joined with student identity.
type ExamMarkRow struct {
	RegNo       string      `db:"reg_no"`
	StudentName string      `db:"student_name"`
	CentreCode  string      `db:"centre_code"`
	Subject     string      `db:"subject"`
	Attempt     ExamAttempt `db:"attempt"`
	Marks       int         `db:"marks"`
}
