package domain

import (
	"fmt"
	"strings"
)

const (
	// IntroSentence precedes the list of selected pull requests.
	IntroSentence = "The important Pull Requests of the week are:"
	// NoItemsSentence replaces the list when nothing qualified.
	NoItemsSentence = "No important Pull Requests this week"
)

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Renderer turns a selection into Slack mrkdwn text.
type Renderer struct {
	// Project is the name shown in the header line.
	Project string
}

// Render builds the digest message: a header with the star count, a blank
// line, the introductory sentence, and one `<url|title>` line per item.
func (r Renderer) Render(items []DigestItem, stargazerCount int) string {
	project := r.Project
	if project == "" {
		project = "This repository"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 %s has *%d* stars.\n\n", project, stargazerCount)

	if len(items) == 0 {
		b.WriteString(NoItemsSentence)
		return b.String()
	}

	b.WriteString(IntroSentence)
	b.WriteString("\n\n")
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, FormatItem(item))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// FormatItem renders a single item as a Slack link. The title goes through
// Slack's control-character encoding (&, <, >), which Slack displays as the original text.
func FormatItem(item DigestItem) string {
	return fmt.Sprintf("<%s|%s>", item.URL, slackEscaper.Replace(item.Title))
}
