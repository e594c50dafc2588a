package report

import (
	"time"

	"github.com/macandtoo/backend/internal/model"
)

// SheetName is the worksheet holding submissions in every workbook we write.
const SheetName = "Contacts"

// Headers are the column titles, in column order.
var Headers = []string{"Date", "Name", "Email", "Company", "Service", "Message", "Budget"}

// Row renders one submission in Headers order.
func Row(c *model.ContactSubmission) []string {
	return []string{
		c.CreatedAt.UTC().Format(time.RFC3339),
		c.Name,
		c.Email,
		c.Company,
		c.ServiceRequested,
		c.Message,
		c.BudgetRange,
	}
}
