package chat

import (
	"strings"
	"unicode"
)

// PromptKind selects one of the fixed system prompts
type PromptKind string

// Prompt kinds
const (
	PromptStandard  PromptKind = "standard"
	PromptAuthentic PromptKind = "authentic"
	PromptAdmin     PromptKind = "admin"
)

var systemPrompts = map[PromptKind]string{
	PromptStandard: "You are a friendly conversation partner helping the user practise a regional dialect. " +
		"Answer in clear, polite standard language with light dialect colouring, keep replies short, " +
		"and explain unusual words when you use them.",
	PromptAuthentic: "You are a native speaker of the user's chosen regional dialect. " +
		"Reply fully in authentic dialect with its idioms, humour and rhythm. " +
		"Stay in character, keep the conversation going with questions, and never switch to standard language unless asked.",
	PromptAdmin: "You are the dialect assistant running in operator mode. " +
		"Reply in authentic dialect as for premium users, and when asked also describe how the reply was constructed.",
}

// PromptKindFor maps the chat type and caller role to a prompt kind
func PromptKindFor(chatType ChatType, isAdmin bool) PromptKind {
	switch {
	case isAdmin && chatType == ChatTypePremium:
		return PromptAdmin
	case chatType == ChatTypePremium:
		return PromptAuthentic
	default:
		return PromptStandard
	}
}

// SystemPrompt returns the system prompt text for the chat type and caller role
func SystemPrompt(chatType ChatType, isAdmin bool) string {
	return systemPrompts[PromptKindFor(chatType, isAdmin)]
}

const maxTitleRunes = 50

// GenerateTitle derives a session title from the first user message.
// Whitespace is collapsed and long messages are cut at a word boundary.
func GenerateTitle(message string) string {
	title := strings.Join(strings.FieldsFunc(message, unicode.IsSpace), " ")
	if title == "" {
		return "New chat"
	}

	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}

	cut := runes[:maxTitleRunes]
	for i := len(cut) - 1; i > maxTitleRunes/2; i-- {
		if cut[i] == ' ' {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimRight(string(cut), " .,;:!?-") + "..."
}
