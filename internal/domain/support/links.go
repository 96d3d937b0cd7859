package support

import (
	"regexp"
	"strings"

	"github.com/yanqian/support-assistant/internal/domain/qa"
)

var linkTagPattern = regexp.MustCompile(`\[LINK:([A-Za-z0-9_-]+)\]`)

// expandLinkTags replaces [LINK:key] markers emitted by the model with
// configured URLs. Unknown keys are dropped.
func expandLinkTags(text string, links map[string]string) string {
	expanded := linkTagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		key := strings.ToLower(linkTagPattern.FindStringSubmatch(tag)[1])
		return links[key]
	})
	return strings.TrimSpace(collapseSpaces(expanded))
}

var multiSpace = regexp.MustCompile(`[ \t]{2,}`)

func collapseSpaces(s string) string {
	return multiSpace.ReplaceAllString(s, " ")
}

// composeAnswer appends the entry links, one per line, to the canned answer.
func composeAnswer(entry qa.Entry) string {
	answer := strings.TrimSpace(entry.Answer)
	if len(entry.Links) == 0 {
		return answer
	}
	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n")
	for _, link := range entry.Links {
		line := link.String()
		if line == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString("- ")
		b.WriteString(line)
	}
	return b.String()
}
