package models

import "time"

// Centre represents an examination centre registered with the board.
type Centre struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Address      string    `db:"address" json:"address"`
	Director     string    `db:"director" json:"director"`
	Email        string    `db:"email" json:"email"`
	Scheme       string    `db:"scheme" json:"scheme"`
	College      string    `db:"college" json:"college"`
	Sector       string    `db:"sector" json:"sector"`
	Department   string    `db:"department" json:"department"`
	Course       string    `db:"course" json:"course"`
	LogoPath     string    `db:"logo_path" json:"logo_path,omitempty"`
	DeptLogoPath string    `db:"dept_logo_path" json:"dept_logo_path,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CentreDetail is a Centre with its derived rating attached. Grade and stars
// are computed from enrollment counts at read time and never persisted.
type CentreDetail struct {
	Centre
	SixMonthCount    int    `json:"six_month_count"`
	TwelveMonthCount int    `json:"twelve_month_count"`
	Grade            string `json:"grade"`
	Stars            string `json:"stars"`
}

// CentreFilter captures search parameters for listing centres.
type CentreFilter struct {
	Search   string
	Page     int
	PageSize int
}

// OptionKind identifies one of the extensible selection lists on the centre
// registration form.
type OptionKind string

const (
	OptionScheme     OptionKind = "scheme"
	OptionCollege    OptionKind = "college"
	OptionSector     OptionKind = "sector"
	OptionDepartment OptionKind = "department"
	OptionCourse     OptionKind = "course"
)

// CentreOption is a custom value appended to one of the selection lists.
type CentreOption struct {
	ID        string     `db:"id" json:"id"`
	Kind      OptionKind `db:"kind" json:"kind"`
	Value     string     `db:"value" json:"value"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
