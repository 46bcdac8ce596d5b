package prescription

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

const dateLayout = "2006-01-02"

// RenderPDF lays out a printable A4 prescription.
func RenderPDF(doc *Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Prescription "+doc.ID.String(), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.HospitalName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s (%s)", doc.DoctorName, doc.Specialty)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 9, "Prescription", "1", 1, "C", false, 0, "")
	detail(pdf, tr, "Patient", doc.PatientName)
	detail(pdf, tr, "Date", doc.CreatedAt.UTC().Format(dateLayout))
	detail(pdf, tr, "Diagnosis", doc.Diagnosis)
	pdf.Ln(4)

	widths := []float64{55, 35, 40, 20, 30}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Medication", "Dosage", "Frequency", "Days", "Notes"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, m := range doc.Medications {
		instructions := ""
		if m.Instructions != nil {
			instructions = *m.Instructions
		}
		cells := []string{m.Name, m.Dosage, m.Frequency, strconv.Itoa(m.DurationDays), instructions}
		for i, v := range cells {
			pdf.CellFormat(widths[i], 8, tr(v), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(doc.Medications) == 0 {
		pdf.CellFormat(0, 8, "No medications prescribed", "1", 1, "C", false, 0, "")
	}

	if doc.Notes != nil && *doc.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Notes", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(*doc.Notes), "", "L", false)
	}

	pdf.SetY(pdf.GetY() + 12)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, "This is a computer generated prescription", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render prescription pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func detail(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 8, label, "1", 0, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 8, tr(value), "1", 1, "", false, 0, "")
}
