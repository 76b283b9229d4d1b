package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// HallTicketData carries everything printed on the admission document.
type HallTicketData struct {
	BoardName   string
	CentreName  string
	CentreCode  string
	RegNo       string
	StudentName string
	DateOfBirth string
	BatchName   string
	Course      string
	Status      string
	ApprovedOn  string
	LogoPath    string
}

// HallTicketPDF renders a printable hall ticket.
type HallTicketPDF struct{}

// NewHallTicketPDF constructs the renderer.
func NewHallTicketPDF() *HallTicketPDF {
	return &HallTicketPDF{}
}

// Render produces the PDF bytes for an approved hall ticket.
func (e *HallTicketPDF) Render(data HallTicketData) ([]byte, error) {
	if data.RegNo == "" {
		return nil, fmt.Errorf("hall ticket requires a registration number")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	if data.LogoPath != "" {
		pdf.ImageOptions(data.LogoPath, 15, 12, 22, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(data.BoardName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "EXAMINATION HALL TICKET", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Registration No", data.RegNo},
		{"Name", data.StudentName},
		{"Date of Birth", data.DateOfBirth},
		{"Centre", fmt.Sprintf("%s (%s)", data.CentreName, data.CentreCode)},
		{"Batch", data.BatchName},
		{"Course", data.Course},
		{"Status", data.Status},
		{"Approved On", data.ApprovedOn},
	}

	pdf.SetFont("Arial", "", 11)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 9, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(125, 9, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, "This hall ticket must be produced at the examination centre together with a valid photo identity document. Candidates without an approved hall ticket will not be admitted.", "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render hall ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}
