package store

import "errors"

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrUnknownPost          = errors.New("unknown blog post")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrDraftingDisabled     = errors.New("blog drafting is not configured")
	ErrMissingTopic         = errors.New("a topic is required")
	ErrEmptyDraft           = errors.New("the writer returned no content")
)
