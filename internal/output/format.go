// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"quicktask/internal/service"
)

// FormatListName formats a list name for the lists command.
// Format: "{TITLE}[ [default]][ [shared]]\n"
func FormatListName(w io.Writer, list service.TaskList) {
	title := normalizeListTitle(list.DisplayName)
	if list.IsDefault() {
		title += " [default]"
	}
	if list.IsShared {
		title += " [shared]"
	}
	fmt.Fprintln(w, title)
}

// normalizeListTitle normalizes a list title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeListTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
