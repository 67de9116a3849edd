package payment

import "testing"

func TestDecodePayloadRequiresFromAndNetwork(t *testing.T) {
	if _, err := DecodePayload(nil); err == nil {
		t.Fatal("expected error for nil payload")
	}
	if _, err := DecodePayload(map[string]any{"network": "eip155:8453"}); err == nil {
		t.Fatal("expected error for missing from")
	}
	if _, err := DecodePayload(map[string]any{"from": "0xabc"}); err == nil {
		t.Fatal("expected error for missing network")
	}
}

func TestDecodePayloadHappyPath(t *testing.T) {
	p, err := DecodePayload(map[string]any{
		"network":   "eip155:8453",
		"scheme":    "exact",
		"from":      "0xabc",
		"signature": "0xsig",
		"payload":   map[string]any{"foo": "bar"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Network != "eip155:8453" || p.From != "0xabc" || p.Scheme != "exact" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestMatchesAccepted(t *testing.T) {
	reqs := &Requirements{Accepts: []Accept{{Network: "eip155:8453"}, {Network: "eip155:137"}}}
	p := &Payload{Network: "eip155:8453"}
	if !p.MatchesAccepted(reqs) {
		t.Fatal("expected eip155:8453 to match accepted networks")
	}
	p.Network = "eip155:1"
	if p.MatchesAccepted(reqs) {
		t.Fatal("expected eip155:1 not to match")
	}
	if p.MatchesAccepted(nil) {
		t.Fatal("expected nil requirements to never match")
	}
}
