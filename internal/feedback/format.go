package feedback

import (
	"fmt"
	"strings"
)

// Format renders fb as plain text: the score line, the overall comment, the
// detail items as bullets and the suggestions as a numbered list. Empty
// sections are omitted.
func Format(fb Feedback) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Score: %.1f (%s)\n\n", fb.Score, fb.Grade)
	fmt.Fprintf(&b, "Overall: %s\n", fb.OverallComment)

	if len(fb.Items) > 0 {
		b.WriteString("\nDetails:\n")
		for _, item := range fb.Items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}

	if len(fb.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for i, s := range fb.Suggestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
