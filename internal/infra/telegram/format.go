package telegram

import (
	"fmt"
	"strings"
	"time"

	"recurring_ledger/internal/app"
)

// maxListedEntries keeps summaries well under Telegram's message size limit.
const maxListedEntries = 20

// FormatBatchResult renders a batch run for a chat message. result may be nil when the
// run failed before processing anything.
func FormatBatchResult(result *app.BatchResult, runErr error) string {
	var b strings.Builder
	if runErr != nil {
		if result == nil {
			return fmt.Sprintf("Batch run failed: %v", runErr)
		}
		fmt.Fprintf(&b, "Batch run aborted: %v\n\n", runErr)
	}
	if result == nil {
		return strings.TrimSpace(b.String())
	}

	switch result.TotalCreated {
	case 0:
		b.WriteString("No new entries were created.\n")
	case 1:
		b.WriteString("Created 1 entry:\n")
	default:
		fmt.Fprintf(&b, "Created %d entries:\n", result.TotalCreated)
	}
	for i, e := range result.Created {
		if i == maxListedEntries {
			fmt.Fprintf(&b, "… and %d more\n", len(result.Created)-maxListedEntries)
			break
		}
		fmt.Fprintf(&b, "• %s %s %s %s (%s)\n",
			e.Date.Format(time.DateOnly), e.Kind, e.Amount.StringFixed(2), e.Category, e.Description)
	}

	if msgs := result.ErrorMessages(); len(msgs) > 0 {
		b.WriteString("\nProblems:\n")
		for _, m := range msgs {
			fmt.Fprintf(&b, "• %s\n", m)
		}
	}
	return strings.TrimSpace(b.String())
}

// FormatUpcoming renders projected occurrences for the next days days.
func FormatUpcoming(upcoming []app.UpcomingOccurrence, days int) string {
	if len(upcoming) == 0 {
		return fmt.Sprintf("Nothing due in the next %d days.", days)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Upcoming in the next %d days:\n", days)
	for i, u := range upcoming {
		if i == maxListedEntries {
			fmt.Fprintf(&b, "… and %d more\n", len(upcoming)-maxListedEntries)
			break
		}
		fmt.Fprintf(&b, "• %s %s %s %s", u.Date.Format(time.DateOnly), u.Kind, u.Amount.StringFixed(2), u.Category)
		if u.Overdue {
			b.WriteString(" (overdue)")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
