package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"interview-practice-server/internal/domain"
)

// Service генерирует PDF-отчеты по результатам интервью
type Service struct{}

// New создает генератор отчетов
func New() *Service {
	return &Service{}
}

// Generate собирает PDF-отчет по кандидату и возвращает его байты.
// Отчет строится по данным реестра: саммари может отсутствовать,
// если интервью не завершено.
func (s *Service) Generate(c domain.Candidate) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Interview Report - %s", c.Name), false)
	pdf.SetAuthor("Interview Practice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Interview Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 6, fmt.Sprintf("Candidate: %s", c.Name))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Email: %s", c.Email))
	pdf.Ln(6)
	if c.Phone != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Phone: %s", c.Phone))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", c.Status))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Ln(12)

	if c.InterviewSummary != nil {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 8, fmt.Sprintf("Total Score: %d", c.InterviewSummary.TotalScore))
		pdf.Ln(10)

		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, c.InterviewSummary.Notes, "", "L", false)
		pdf.Ln(8)
	}

	if len(c.Answers) > 0 {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 8, "Answers")
		pdf.Ln(10)

		for i, a := range c.Answers {
			s.writeAnswer(pdf, i+1, a)
		}
	}

	if c.InterviewSummary == nil && len(c.Answers) == 0 {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.MultiCell(0, 6, "The interview has not been completed yet.", "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ошибка генерации PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) writeAnswer(pdf *gofpdf.Fpdf, n int, a domain.Answer) {
	pdf.SetFont("Helvetica", "B", 12)
	head := fmt.Sprintf("Question %d", n)
	if a.Score != nil {
		head = fmt.Sprintf("%s - Score: %d/10", head, *a.Score)
	}
	if a.AutoSubmitted {
		head += " (auto-submitted)"
	}
	pdf.Cell(0, 7, head)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	content := strings.TrimSpace(a.Content)
	if content == "" {
		content = "(empty)"
	}
	pdf.MultiCell(0, 5, content, "", "L", false)

	if a.Feedback != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 5, fmt.Sprintf("Feedback: %s", a.Feedback), "", "L", false)
	}
	pdf.Ln(4)
}
