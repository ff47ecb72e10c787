package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"prodash/internal/amqp"
	"prodash/internal/assistant"
	"prodash/internal/core"
	applog "prodash/internal/log"
	"prodash/internal/storage"
)

const (
	// ApologyReply is stored when the assistant backend fails.
	ApologyReply = "I'm having trouble connecting right now. Please try again in a moment!"
	// EmptyReply is stored when the assistant has nothing to say.
	EmptyReply = "Sorry, I could not respond right now."
)

// ChatService keeps the conversation with the assistant.
type ChatService struct {
	crud[core.ChatMessage, *core.ChatMessage]
	repo      storage.ChatRepository
	assistant assistant.Assistant
	logger    *applog.Logger
}

// History returns the owner's messages, oldest first.
func (s *ChatService) History(ctx context.Context, userID string) ([]core.ChatMessage, error) {
	msgs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// Send stores the user's message, asks the assistant with the whole history
// and stores the reply. A failing assistant yields ApologyReply instead of
// an error, an empty answer yields EmptyReply.
func (s *ChatService) Send(ctx context.Context, userID, content string) (core.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if _, err := s.create(ctx, userID, core.ChatMessage{Role: core.RoleUser, Content: content}); err != nil {
		return core.ChatMessage{}, err
	}

	history, err := s.History(ctx, userID)
	if err != nil {
		return core.ChatMessage{}, err
	}

	reply, err := s.assistant.Reply(ctx, history)
	switch {
	case errors.Is(err, assistant.ErrEmptyReply):
		reply = EmptyReply
	case err != nil:
		s.logger.ErrorContext(ctx, "Assistant reply failed", applog.FieldError, err, applog.FieldUserID, userID)
		reply = ApologyReply
	case strings.TrimSpace(reply) == "":
		reply = EmptyReply
	}

	return s.create(ctx, userID, core.ChatMessage{Role: core.RoleAssistant, Content: reply})
}

// Clear deletes the owner's whole conversation.
func (s *ChatService) Clear(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clear chat: %w", err)
	}
	if n > 0 {
		s.events.changed(ctx, CollectionChat, amqp.ActionClear, userID, userID)
	}
	return n, nil
}
