package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Request is the chat payload sent to the provider. Temperature is not
// omitempty: zero is the value we want on the wire.
type Request struct {
	Model       string                         `json:"model"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	MaxTokens   int                            `json:"max_tokens"`
	Temperature float32                        `json:"temperature"`
}

// Provider performs a single completion call and returns the provider's
// response decoded as a generic JSON value.
type Provider interface {
	Complete(ctx context.Context, req Request) (map[string]any, error)
}

// JSONCompleter is what the planner and executor agents depend on.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, prompt string) map[string]any
}

// Conversation is the message history of one AskJSON call. Retries append
// to it, so every attempt after the first resends the accumulated turns.
type Conversation struct {
	messages []openai.ChatCompletionMessage
}

func NewConversation(system, prompt string) *Conversation {
	return &Conversation{
		messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
}

func (c *Conversation) AddUser(content string) {
	c.messages = append(c.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}
