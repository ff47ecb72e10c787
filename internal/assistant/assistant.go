// Package assistant produces chat replies, either from an OpenAI-compatible
// chat completion endpoint or from a fixed set of productivity tips.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"prodash/internal/core"
)

const (
	DefaultModel = openai.GPT3Dot5Turbo

	// SystemPrompt frames every completion request.
	SystemPrompt = "You are ProDash AI, a friendly and concise productivity assistant. " +
		"Help users manage tasks, build habits, track job applications, manage budgets, and achieve their goals. " +
		"Be actionable and specific. Keep responses under 200 words unless asked for detail."

	// HistoryWindow is how many of the newest messages are sent as context.
	HistoryWindow = 20
	maxTokens     = 500
	temperature   = 0.7
)

// ErrEmptyReply is returned when the backend answers without content.
var ErrEmptyReply = errors.New("assistant returned an empty reply")

// Assistant answers a conversation. history is ordered oldest first and
// ends with the user's latest message.
type Assistant interface {
	Reply(ctx context.Context, history []core.ChatMessage) (string, error)
}

// Tips are the canned answers used when no API key is configured.
var Tips = []string{
	"Great question! Here's my productivity tip: Break large tasks into smaller, actionable steps. This makes them less overwhelming and easier to track progress on.",
	"I'd recommend using the Pomodoro technique - work for 25 minutes, then take a 5-minute break. After 4 cycles, take a longer break. This keeps your focus sharp!",
	"For habit building, try habit stacking - attach a new habit to an existing one. For example, 'After I pour my morning coffee, I will write my top 3 priorities for the day.'",
	"Time blocking is powerful! Dedicate specific time slots for different types of work. This reduces context switching and boosts productivity.",
	"Remember the 80/20 rule - 80% of results come from 20% of efforts. Focus on identifying and prioritizing those high-impact tasks!",
}

// Canned picks one of Tips uniformly at random.
type Canned struct {
	pick func(n int) int
}

func NewCanned() *Canned {
	return &Canned{pick: rand.IntN}
}

func (c *Canned) Reply(ctx context.Context, _ []core.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Tips[c.pick(len(Tips))], nil
}

// completer is the slice of the go-openai client used here.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI asks a chat completion model.
type OpenAI struct {
	client completer
	model  string
}

// NewOpenAI builds a client for apiKey. An empty baseURL selects the
// public OpenAI endpoint.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Reply(ctx context.Context, history []core.ChatMessage) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, BuildRequest(o.model, history))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}

// BuildRequest assembles the completion request: the system prompt followed
// by the last HistoryWindow messages.
func BuildRequest(model string, history []core.ChatMessage) openai.ChatCompletionRequest {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == core.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// New returns the OpenAI assistant when apiKey is set and Canned otherwise.
func New(apiKey, model, baseURL string) Assistant {
	if apiKey == "" {
		return NewCanned()
	}
	return NewOpenAI(apiKey, model, baseURL)
}
