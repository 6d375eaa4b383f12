package signer

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHMACSigner_AppendsTimestampAndSignature(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewHMACSigner("secret", func() time.Time { return fixed })

	params := url.Values{}
	params.Set("symbol", "BTCUSDT")
	params.Set("side", "BUY")

	signed := s.Sign(params)

	assert.Contains(t, signed, "timestamp="+func() string {
		return "1767225600000"
	}())
	assert.Contains(t, signed, "&signature=")
	sigIdx := strings.LastIndex(signed, "&signature=")
	assert.Equal(t, 64, len(signed[sigIdx+len("&signature="):]))
}

func TestHMACSigner_Deterministic(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	params := url.Values{}
	params.Set("symbol", "ETHUSDT")
	params.Set("timestamp", "1700000000000")

	a := NewHMACSigner("secret", func() time.Time { return fixed }).Sign(cloneValues(params))
	b := NewHMACSigner("secret", func() time.Time { return fixed }).Sign(cloneValues(params))

	assert.Equal(t, a, b)
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		for _, val := range vals {
			out.Add(k, val)
		}
	}
	return out
}
