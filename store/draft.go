package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/itsneelabh/gomind/core"
	"go.uber.org/zap"
)

// draftMaxTokens leaves room for a 500-word Vietnamese post.
const draftMaxTokens = 2048

const draftPrompt = `Write a helpful, engaging blog post for an organic food website called "CookIQ", formatted with Markdown.
Topic: %s
Category: %s
Language: Vietnamese (Tiếng Việt).
Keep it under 500 words. Focus on health benefits or cooking tips.`

// WithWriter enables GenerateBlogDraft with an AI text generator.
func WithWriter(w core.AIClient) Option {
	return func(s *Store) { s.writer = w }
}

// DraftingEnabled reports whether GenerateBlogDraft can reach a model.
func (s *Store) DraftingEnabled() bool {
	return s.writer != nil
}

// GenerateBlogDraft asks the AI writer for a Markdown post about topic. It
// touches no store state; the caller decides whether to submit the draft
// with AddBlog.
func (s *Store) GenerateBlogDraft(ctx context.Context, topic string, category BlogCategory) (string, error) {
	if s.writer == nil {
		return "", ErrDraftingDisabled
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrMissingTopic
	}

	resp, err := s.writer.GenerateResponse(ctx, fmt.Sprintf(draftPrompt, topic, category.Label()), &core.AIOptions{
		MaxTokens: draftMaxTokens,
	})
	if err != nil {
		s.log.Error("blog draft failed", zap.String("topic", topic), zap.Error(err))
		return "", fmt.Errorf("generate draft: %w", err)
	}
	draft := strings.TrimSpace(resp.Content)
	if draft == "" {
		return "", fmt.Errorf("generate draft: %w", ErrEmptyDraft)
	}

	s.log.Info("blog draft generated", zap.String("topic", topic), zap.String("model", resp.Model), zap.Int("tokens", resp.Usage.TotalTokens))
	return draft, nil
}
