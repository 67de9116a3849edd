// Package facilitator defines the narrow verify-and-settle interface (C11)
// that the payment state machine calls after a payment payload has been
// accepted. Real on-chain verification is delegated to an external
// facilitator behind this interface; the default implementation here is
// the in-process test-mode facilitator.
package facilitator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jhaveripatric/x402-agent-gateway/internal/payment"
)

// Adapter verifies a payment payload against requirements and returns a
// settlement transaction identifier on success.
type Adapter interface {
	VerifyAndSettle(ctx context.Context, payload *payment.Payload, requirements *payment.Requirements) (transactionID string, err error)
}

// TestModeAdapter accepts any well-formed payload and synthesises a unique
// opaque transaction id. This is the default: the core treats a submitted
// payment payload as cryptographically valid and delegates real
// verification to an external facilitator behind this interface (§1).
type TestModeAdapter struct{}

// NewTestModeAdapter constructs the default in-process facilitator.
func NewTestModeAdapter() *TestModeAdapter { return &TestModeAdapter{} }

// VerifyAndSettle implements Adapter.
func (TestModeAdapter) VerifyAndSettle(ctx context.Context, p *payment.Payload, r *payment.Requirements) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil payment payload")
	}
	if !p.MatchesAccepted(r) {
		return "", fmt.Errorf("payload network %q not among accepted networks", p.Network)
	}

	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	return "0x" + hex.EncodeToString(buf[:]), nil
}

// RemoteConfig configures a facilitator that calls out to an external
// verifier process. Not implemented by TestModeAdapter; a production
// deployment would supply its own Adapter built around this shape.
type RemoteConfig struct {
	URL     string
	APIKey  string
}
