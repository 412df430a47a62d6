package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const (
	accessKeyHeader = "X-Relay-Key"

	msgEmptyBody        = "Please pass a payload to broadcast in the request body."
	msgNoConnectionInfo = "Failed to load connection info."
	msgUnavailable      = "Connection info is temporarily unavailable."
	msgSubmitFailed     = "Failed to submit broadcast."
	msgInvalidUTF8      = "Request body must be UTF-8 text."
)

// newHandler routes the relay endpoints. clients serves the provider's
// websocket client endpoint, if it has one.
func newHandler(cfg config, p provider, clients http.Handler, log zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	r.Handle("/negotiate", negotiateHandler{cfg: cfg, p: p}).Methods("GET", "POST")
	r.Handle("/message", requireAccessKey(cfg.AccessKey, messageHandler{cfg: cfg, p: p})).Methods("POST")
	r.Handle("/debug/metrics", metricsHandler{}).Methods("GET")

	// Route websocket requests. Connection is a token list, so
	// "keep-alive, Upgrade" must match too.
	r.Path("/client").MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return websocket.IsWebSocketUpgrade(r)
	}).Handler(clients)

	r.Path("/").Methods("GET").Handler(pageHandler{cfg: cfg})

	return withLogging(log, r)
}

type negotiateHandler struct {
	cfg config
	p   provider
}

func (nh negotiateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	info, err := nh.p.IssueConnectionInfo(r.Context(), nh.cfg.Hub)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("hub", nh.cfg.Hub).Msg("connection info unavailable")
		http.Error(w, msgUnavailable, http.StatusServiceUnavailable)
		return
	case info == nil:
		log.Warn().Str("hub", nh.cfg.Hub).Msg("no connection info for hub")
		http.Error(w, msgNoConnectionInfo, http.StatusNotFound)
		return
	}
	mark("negotiations", 1)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		log.Debug().Err(err).Msg("write connection info")
	}
}

type messageHandler struct {
	cfg config
	p   provider
}

func (mh messageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, mh.cfg.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body is too large.", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Unable to read request body.", http.StatusBadRequest)
		return
	}
	text := string(body)
	log.Info().Str("body", text).Msg("broadcast request")
	if strings.TrimSpace(text) == "" {
		http.Error(w, msgEmptyBody, http.StatusBadRequest)
		return
	}
	// Frames are JSON text; invalid bytes would reach subscribers as U+FFFD.
	if !utf8.ValidString(text) {
		http.Error(w, msgInvalidUTF8, http.StatusBadRequest)
		return
	}

	msg := broadcastMessage{Target: mh.cfg.Target, Arguments: []string{text}}
	if err := mh.p.SubmitMessage(r.Context(), mh.cfg.Hub, msg); err != nil {
		log.Error().Err(err).Str("hub", mh.cfg.Hub).Msg("broadcast dropped")
		http.Error(w, msgSubmitFailed, submitStatus(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func submitStatus(err error) int {
	if errors.Is(err, errProviderSaturated) || errors.Is(err, errQuotaExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// requireAccessKey guards next with a shared key taken from the
// X-Relay-Key header or the code query parameter. An empty key disables
// the check.
func requireAccessKey(key string, next http.Handler) http.Handler {
	if key == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(accessKeyHeader)
		if got == "" {
			got = r.URL.Query().Get("code")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			http.Error(w, "Missing or invalid access key.", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
