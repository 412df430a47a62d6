package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"
)

// invocationType marks a frame as a hub method invocation, the same
// numbering SignalR clients understand.
const invocationType = 1

type invocation struct {
	Type int `json:"type"`
	broadcastMessage
}

// localProvider is a self-hosted provider: it issues tokens itself and
// fans messages out to websocket subscribers through an in-process broker.
type localProvider struct {
	hub       string
	publicURL string
	tokens    *tokenIssuer
	limiter   *rate.Limiter
	b         *broker
	ticker    *mTicker
	upgrader  *websocket.Upgrader
}

func newLocalProvider(cfg config, log zerolog.Logger) *localProvider {
	limit := rate.Inf
	if cfg.MessageRate > 0 {
		limit = rate.Limit(cfg.MessageRate)
	}
	p := &localProvider{
		hub:       cfg.Hub,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		tokens:    newTokenIssuer(cfg.TokenSecret, cfg.TokenTTL, cfg.PublicURL),
		limiter:   rate.NewLimiter(limit, cfg.MessageBurst),
		b:         newBroker(cfg.QueueSize),
		ticker:    newMTicker(pingPeriod),
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.Origin),
		},
	}
	go p.b.run()
	log.Debug().Str("hub", p.hub).Str("url", p.publicURL).Float64("rate", float64(limit)).Msg("local provider ready")
	return p
}

// checkOrigin returns nil for gorilla's same-origin default.
func checkOrigin(origin string) func(*http.Request) bool {
	switch origin {
	case "":
		return nil
	case "*":
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		return r.Header.Get("Origin") == origin
	}
}

func (p *localProvider) IssueConnectionInfo(ctx context.Context, hub string) (*connectionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hub != p.hub {
		return nil, nil
	}
	token, expires, err := p.tokens.issue(hub)
	if err != nil {
		return nil, err
	}
	return &connectionInfo{
		URL:         p.publicURL + "/client?hub=" + url.QueryEscape(hub),
		AccessToken: token,
		ExpiresAt:   expires,
	}, nil
}

// SubmitMessage encodes msg as an invocation frame and queues it for the
// hub's subscribers without waiting. Arguments are JSON strings, so bytes
// that are not valid UTF-8 arrive as U+FFFD.
func (p *localProvider) SubmitMessage(ctx context.Context, hub string, msg broadcastMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if hub != p.hub {
		return fmt.Errorf("submit to %q: %w", hub, errUnknownHub)
	}
	if !p.limiter.Allow() {
		return fmt.Errorf("submit to %q: %w", hub, errQuotaExceeded)
	}
	frame, err := json.Marshal(invocation{Type: invocationType, broadcastMessage: msg})
	if err != nil {
		return fmt.Errorf("encode invocation: %w", err)
	}
	if !p.b.submit(hub, frame) {
		return fmt.Errorf("submit to %q: %w", hub, errProviderSaturated)
	}
	mark("broadcasts", 1)
	return nil
}

// ServeHTTP is the client endpoint: it authenticates the access token and
// upgrades the request to a websocket subscribed to the token's hub.
func (p *localProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("access_token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	hub, err := p.tokens.verify(token)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("rejected subscriber")
		http.Error(w, "Invalid or expired access token.", http.StatusUnauthorized)
		return
	}
	if q := r.URL.Query().Get("hub"); q != "" && q != hub {
		http.Error(w, "Access token is not valid for this hub.", http.StatusUnauthorized)
		return
	}
	ws, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		return
	}
	c := newConnection(websocketInteractor{ws: ws}, p.b, hub, *hlog.FromRequest(r))
	c.run(p.ticker)
}
