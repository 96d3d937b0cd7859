package support

import (
	"strings"
	"unicode/utf8"
)

// lastUserMessage returns the newest non-blank user turn.
func lastUserMessage(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if !strings.EqualFold(messages[i].Role, "user") {
			continue
		}
		if text := strings.TrimSpace(messages[i].Content); text != "" {
			return text, true
		}
	}
	return "", false
}

// trimHistory keeps the most recent user/assistant turns fitting budget
// tokens. The newest turn is always kept even when it alone exceeds the budget.
func trimHistory(messages []Message, budget int, counter TokenCounter) []Message {
	conversation := make([]Message, 0, len(messages))
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		conversation = append(conversation, Message{Role: role, Content: msg.Content})
	}
	if budget <= 0 || len(conversation) == 0 {
		return conversation
	}

	used := 0
	start := len(conversation)
	for i := len(conversation) - 1; i >= 0; i-- {
		cost := countTokens(counter, conversation[i].Content)
		if used+cost > budget && start < len(conversation) {
			break
		}
		used += cost
		start = i
	}
	kept := conversation[start:]
	// providers reject conversations that open with an assistant turn
	for len(kept) > 1 && kept[0].Role != "user" {
		kept = kept[1:]
	}
	return kept
}

func countTokens(counter TokenCounter, text string) int {
	if counter != nil {
		return counter.Count(text)
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}
