package pipeline

import (
	"fmt"
	"strings"

	"github.com/recaplab/recap-api/internal/domain"
)

// PromptInput carries everything the prompt builder needs. PriorSummary is
// the previous week's generated summary text, empty when none exists.
type PromptInput struct {
	Data         *domain.WeeklyData
	PriorSummary string
	Year         int
	Week         int
}

// BuildPrompt renders the generation prompt for one user's week. It is a
// pure function of its input: the same weekly data always yields the same
// prompt, which keeps submission reproducible and testable offline.
func BuildPrompt(in PromptInput) string {
	start, end := domain.WeekWindow(in.Year, in.Week)
	// The window is half-open; the last working day is the Friday before end.
	friday := end.AddDate(0, 0, -1)

	var b strings.Builder
	b.WriteString("You are writing a short, encouraging weekly recap for a personal task manager user.\n\n")
	fmt.Fprintf(&b, "Week: %s to %s (week %d of %d)\n\n",
		start.Format("Monday, January 2, 2006"),
		friday.Format("Friday, January 2, 2006"),
		in.Week, in.Year)

	fmt.Fprintf(&b, "Tasks completed this week (%d):\n", len(in.Data.CompletedTodos))
	for _, todo := range in.Data.CompletedTodos {
		if todo.CompletedAt != nil {
			fmt.Fprintf(&b, "- %s (%s)\n", todo.Title, todo.CompletedAt.Format("Mon Jan 2"))
		} else {
			fmt.Fprintf(&b, "- %s\n", todo.Title)
		}
	}

	fmt.Fprintf(&b, "\nTasks still open: %d\n", in.Data.IncompleteCount)

	if !in.Data.AccountCreated.IsZero() && !in.Data.AccountCreated.Before(start) {
		b.WriteString("\nThis is the user's first week on the platform. Welcome them.\n")
	}

	if in.PriorSummary != "" {
		b.WriteString("\nLast week's recap, for continuity of tone and narrative:\n")
		b.WriteString(in.PriorSummary)
		b.WriteString("\n")
	}

	b.WriteString("\nWrite 2-3 sentences summarizing what the user accomplished. " +
		"Be specific about the tasks, keep the tone warm and motivating, and " +
		"do not invent tasks that are not listed. Respond with the summary text only.")

	return b.String()
}
