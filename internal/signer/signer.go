// Package signer implements the HMAC-SHA256 request signing contract
// consumed by internal/adapters/binance. Grounded on the L2 signing
// scheme in AlejandroRuiz99-polybot's internal/adapters/polymarket/auth.go
// (hmac.New(sha256.New, secret) over a canonical message), adapted here
// from base64 to hex encoding and from a timestamp+method+path message
// to a URL-encoded query string, per the exchange signing convention.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// Signer computes a deterministic signature over a set of request
// parameters.
type Signer interface {
	// Sign appends a millisecond timestamp (if absent) and a signature
	// parameter to params, returning the fully encoded query string.
	Sign(params url.Values) string
}

// HMACSigner signs query strings with hex(HMAC_SHA256(secret, query)).
type HMACSigner struct {
	secret []byte
	now    func() time.Time
}

// NewHMACSigner creates a signer bound to secret. now defaults to
// time.Now; tests may override it for deterministic timestamps.
func NewHMACSigner(secret string, now func() time.Time) *HMACSigner {
	if now == nil {
		now = time.Now
	}
	return &HMACSigner{secret: []byte(secret), now: now}
}

// Sign implements Signer.
func (s *HMACSigner) Sign(params url.Values) string {
	if params.Get("timestamp") == "" {
		params.Set("timestamp", strconv.FormatInt(s.now().UnixMilli(), 10))
	}

	// url.Values.Encode() sorts keys alphabetically rather than preserving
	// declared order; the same string is signed and sent here so it's
	// internally consistent, but callers relying on a specific param
	// ordering on the wire should not assume one.
	query := params.Encode()

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(query))
	sig := hex.EncodeToString(mac.Sum(nil))

	return query + "&signature=" + sig
}
