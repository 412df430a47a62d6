// Command taxirelay relays HTTP-posted payloads to the websocket
// subscribers of a single hub.
//
//	RELAY_TOKEN_SECRET=... taxirelay -addr=:8081 -public-url=ws://localhost:8081
//
// A client first asks for connection info, then subscribes with it.
//
//	curl -X POST localhost:8081/negotiate
//	{"url":"ws://localhost:8081/client?hub=taxidata","accessToken":"...","expiresAt":"..."}
//
// Producers publish by POSTing a plain text body; every subscriber of the
// hub receives it as an invocation of the configured target.
//
//	curl localhost:8081/message -H "X-Relay-Key: $RELAY_ACCESS_KEY" -d "taxi-update-42"
//	{"type":1,"target":"notify","arguments":["taxi-update-42"]}
//
// Everything is as ephemeral as can be. A message is sent to connected
// subscribers (if any) and then forgotten.
//
// GET / serves HTML with a websocket client for the hub.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/facebookgo/httpdown"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := newLogger(cfg.LogLevel, cfg.LogConsole, os.Stderr)

	// Prepare the stoppable HTTP server
	p := newLocalProvider(cfg, log)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, p, p, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	hd := &httpdown.HTTP{
		StopTimeout: cfg.StopTimeout,
		KillTimeout: cfg.KillTimeout,
	}

	startMetrics(cfg.MetricsTick, os.Stderr)
	defer finalMetrics()

	log.Info().Str("addr", cfg.Addr).Str("hub", cfg.Hub).Msg("relay listening")
	if err := httpdown.ListenAndServe(server, hd); err != nil {
		log.Error().Err(err).Msg("server stopped")
		p.ticker.stop()
		finalMetrics()
		os.Exit(1)
	}
	p.ticker.stop()
	log.Info().Msg("relay stopped")
}
