// Package llm defines the contract between supallama and a hosted
// chat-completion service.
package llm

import (
	"context"
)

// RoleUser is the only role supallama sends.
const RoleUser = "user"

// Message is a single chat message. It is built right before a Complete
// call and never stored.
type Message struct {
	Role    string
	Content string
}

// UserMessage returns a user-role message with the given content.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Completer sends messages to a model and returns the text of the first
// completion choice.
type Completer interface {
	// Complete never retries. Failures are returned as *Error values whose
	// kind can be tested with errors.Is against the Err* sentinels.
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}
