package models

import "time"

// CentreGradeSummary is one row of the admin dashboard rating table.
type CentreGradeSummary struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	SixMonthCount    int    `json:"six_month_count"`
	TwelveMonthCount int    `json:"twelve_month_count"`
	Grade            string `json:"grade"`
	Stars            string `json:"stars"`
}

// AdminDashboard aggregates portal-wide totals with per-centre ratings.
type AdminDashboard struct {
	TotalCentres       int                  `json:"total_centres"`
	TotalStudents      int                  `json:"total_students"`
	PendingHallTickets int                  `json:"pending_hall_tickets"`
	Centres            []CentreGradeSummary `json:"centres"`
	GeneratedAt        time.Time            `json:"generated_at"`
}

// HallTicketPanel is the student dashboard's admission status block.
type HallTicketPanel struct {
	Applied      bool             `json:"applied"`
	Status       HallTicketStatus `json:"status"`
	AppliedAt    *time.Time       `json:"applied_at,omitempty"`
	AutoApproved bool             `json:"auto_approved"`
}

// StudentDashboard is the student landing payload. Loading it runs the
// lazy hall-ticket approval check.
type StudentDashboard struct {
	Student        StudentDetail   `json:"student"`
	Qualifications []Qualification `json:"qualifications"`
	Marks          []ExamMark      `json:"marks"`
	HallTicket     HallTicketPanel `json:"hall_ticket"`
}
