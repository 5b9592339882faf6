package bot

import (
	"fmt"
	"strings"
)

// HelpInfo describes the active summarization backend for /help.
type HelpInfo struct {
	Selected  string
	Available []string
}

func (h HelpInfo) text() string {
	return fmt.Sprintf(`🤖 Send me a link and I will reply with a summary of the page.

Pages are read with Jina Reader and summarized by an AI model (current: %s, available: %s).`,
		h.Selected,
		strings.Join(h.Available, ", "))
}
