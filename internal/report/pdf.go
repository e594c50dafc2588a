package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
	"github.com/macandtoo/backend/internal/model"
)

const pdfMessageLimit = 60

// SummaryPDF renders an A4 report of submissions for the back office:
// a title, counts per export state and a table of the given rows.
func SummaryPDF(contacts []*model.ContactSubmission, counts model.ContactStateCounts, now time.Time) ([]byte, error) {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(10, 15, 10)

	m.Row(12, func() {
		m.Col(12, func() {
			m.Text("Contact submissions", props.Text{
				Size:  16,
				Style: consts.Bold,
				Align: consts.Center,
			})
		})
	})
	m.Row(8, func() {
		m.Col(12, func() {
			m.Text("Generated "+now.UTC().Format("2006-01-02 15:04 MST"), props.Text{
				Size:  9,
				Align: consts.Center,
			})
		})
	})

	m.Row(10, func() {
		m.Col(3, func() { m.Text(fmt.Sprintf("Total: %d", len(contacts)), props.Text{Size: 10, Style: consts.Bold}) })
		m.Col(3, func() { m.Text(fmt.Sprintf("Pending: %d", counts[model.ExportPending]), props.Text{Size: 10}) })
		m.Col(3, func() { m.Text(fmt.Sprintf("In flight: %d", counts[model.ExportExporting]+counts[model.ExportNotified]), props.Text{Size: 10}) })
		m.Col(3, func() { m.Text(fmt.Sprintf("Processed: %d", counts[model.ExportDone]), props.Text{Size: 10}) })
	})

	header := []string{"Date", "Name", "Email", "Service", "Message"}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{
			c.CreatedAt.UTC().Format("2006-01-02"),
			c.Name,
			c.Email,
			c.ServiceRequested,
			truncate(c.Message, pdfMessageLimit),
		})
	}
	if len(rows) > 0 {
		m.TableList(header, rows)
	}

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("report: pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
