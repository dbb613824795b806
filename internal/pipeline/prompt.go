package pipeline

import (
	"fmt"
	"strings"
)

const promptTemplate = "Context:\n%s\n\nQuestion:\n%s\n\nAnswer:"

// BuildPrompt fills the fixed answer template. Context passages are
// separated by a blank line.
func BuildPrompt(context []string, query string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(context, "\n\n"), query)
}
