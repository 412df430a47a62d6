package main

import (
	"context"
	"errors"
	"time"
)

// provider is the real-time messaging service the relay forwards to.
type provider interface {
	// IssueConnectionInfo returns what a client needs to subscribe to hub.
	// A nil info with a nil error means the provider does not serve hub.
	IssueConnectionInfo(ctx context.Context, hub string) (*connectionInfo, error)

	// SubmitMessage queues msg for fan-out to the current subscribers of
	// hub. A nil error confirms acceptance, not delivery.
	SubmitMessage(ctx context.Context, hub string, msg broadcastMessage) error
}

type connectionInfo struct {
	URL         string    `json:"url"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type broadcastMessage struct {
	Target    string   `json:"target"`
	Arguments []string `json:"arguments"`
}

var (
	errUnknownHub        = errors.New("hub is not served by this provider")
	errProviderSaturated = errors.New("provider saturated")
	errQuotaExceeded     = errors.New("submission quota exceeded")
)
