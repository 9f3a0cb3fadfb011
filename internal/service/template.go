package service

import (
	"strconv"
	"strings"
	"time"

	"collector-engine/internal/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// formatAmount renders a debt amount the way the outreach templates expect it,
// e.g. "R$ 1.234,56".
func formatAmount(v float64) string {
	return ptBR.Sprintf("R$ %.2f", v)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// renderTemplate substitutes the message placeholders. {days_overdue} counts
// from the due date to now, independent of the step's day offset, floored at
// zero for not-yet-due debts.
func renderTemplate(tpl string, debt domain.EligibleDebt, now time.Time) string {
	dueDate := ""
	daysOverdue := 0

	if debt.DueDate != nil {
		dueDate = formatDate(*debt.DueDate)
		if d := daysBetween(*debt.DueDate, now); d > 0 {
			daysOverdue = d
		}
	}

	return strings.NewReplacer(
		"{customer_name}", debt.CustomerName,
		"{amount}", formatAmount(debt.Amount),
		"{due_date}", dueDate,
		"{days_overdue}", strconv.Itoa(daysOverdue),
	).Replace(tpl)
}
