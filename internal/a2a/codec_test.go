package a2a

import (
	"encoding/json"
	"testing"
)

func TestMessageMarshalFlattensPaymentMeta(t *testing.T) {
	msg := Message{
		MessageID: "m1",
		Role:      RoleUser,
		Kind:      "message",
		Parts:     []Part{TextPart("hello")},
		PaymentMeta: &PaymentMetadata{
			Status: PaymentStatusSubmitted,
			Payer:  "0xabc",
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	meta, ok := raw["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("expected metadata object, got %v", raw["metadata"])
	}
	if meta["x402.payment.status"] != string(PaymentStatusSubmitted) {
		t.Fatalf("unexpected status field: %v", meta["x402.payment.status"])
	}
	if meta["x402.payer"] != "0xabc" {
		t.Fatalf("unexpected payer field: %v", meta["x402.payer"])
	}
}

func TestMessageRoundTrip(t *testing.T) {
	original := Message{
		MessageID: "m1",
		Role:      RoleUser,
		Kind:      "message",
		Parts:     []Part{TextPart("hello")},
		PaymentMeta: &PaymentMetadata{
			Status: PaymentStatusSubmitted,
			Payer:  "0xabc",
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.PaymentMeta == nil {
		t.Fatal("expected PaymentMeta to round-trip")
	}
	if decoded.PaymentMeta.Status != PaymentStatusSubmitted || decoded.PaymentMeta.Payer != "0xabc" {
		t.Fatalf("unexpected PaymentMeta after round trip: %+v", decoded.PaymentMeta)
	}
}

func TestSessionWalletHelpers(t *testing.T) {
	if SessionWallet(nil) != "" {
		t.Fatal("expected empty wallet for nil metadata")
	}
	meta := SetSessionWallet(nil, "0xabc")
	if SessionWallet(meta) != "0xabc" {
		t.Fatalf("SessionWallet = %q, want 0xabc", SessionWallet(meta))
	}
}
