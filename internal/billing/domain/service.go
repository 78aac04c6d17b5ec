package domain

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// IngestWebhook verifies and processes one billing provider event.
	// Events the mirror does not care about return ErrEventIgnored.
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error

	// GetSubscription returns the user's mirrored subscription, or nil when
	// the user has never subscribed.
	GetSubscription(ctx context.Context, userID snowflake.ID) (*Subscription, error)
}

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrEventIgnored     = errors.New("event_ignored")
)
