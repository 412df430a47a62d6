package main

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTokenIssuer(testSecret, time.Hour, "ws://relay.test")
	now := time.Now()

	token, expires, err := issuer.issue("taxidata")
	if err != nil {
		t.Fatal("issue:", err)
	}
	if expires.Before(now.Add(59*time.Minute)) || expires.After(now.Add(time.Hour)) {
		t.Fatal("Expectation: expiry about an hour out, Received:", expires)
	}

	hub, err := issuer.verify(token)
	if err != nil {
		t.Fatal("verify:", err)
	}
	if hub != "taxidata" {
		t.Fatal("Expectation: taxidata, Received:", hub)
	}
}

func TestTokenTokensAreUnique(t *testing.T) {
	issuer := newTokenIssuer(testSecret, time.Hour, "ws://relay.test")
	a, _, _ := issuer.issue("taxidata")
	b, _, _ := issuer.issue("taxidata")
	if a == b {
		t.Fatal("Expectation: distinct tokens per issue")
	}
}

func TestTokenRejections(t *testing.T) {
	issuer := newTokenIssuer(testSecret, time.Hour, "ws://relay.test")
	valid, _, err := issuer.issue("taxidata")
	if err != nil {
		t.Fatal("issue:", err)
	}

	expired := newTokenIssuer(testSecret, time.Minute, "ws://relay.test")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.issue("taxidata")
	if err != nil {
		t.Fatal("issue:", err)
	}

	otherAudience, _, _ := newTokenIssuer(testSecret, time.Hour, "ws://elsewhere.test").issue("taxidata")
	otherSecret, _, _ := newTokenIssuer(strings.Repeat("x", 32), time.Hour, "ws://relay.test").issue("taxidata")

	for name, token := range map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"expired":        old,
		"other audience": otherAudience,
		"other secret":   otherSecret,
		"tampered":       tamper(valid, otherAudience),
	} {
		if _, err := issuer.verify(token); err == nil {
			t.Error(name, "token verified")
		}
	}
}

// tamper keeps the header and signature of token but swaps in the claims
// of donor.
func tamper(token, donor string) string {
	a, b := strings.Split(token, "."), strings.Split(donor, ".")
	return a[0] + "." + b[1] + "." + a[2]
}
