package a2a

import "encoding/json"

// RawParams defers decoding of a JSON-RPC params object until the
// dispatcher knows which method it belongs to.
type RawParams = json.RawMessage

// MessageSendParams is the params object for message/send and tasks/send.
type MessageSendParams struct {
	Message Message `json:"message"`
}

// TaskIDParams is the params object for tasks/get and tasks/cancel.
type TaskIDParams struct {
	ID string `json:"id"`
}

// the well-known metadata keys carrying typed payment fields inline in the
// free-form Metadata map, per the wire contract in spec.md §6.2.
const (
	metaKeyPaymentStatus    = "x402.payment.status"
	metaKeyPaymentPayload   = "x402.payment.payload"
	metaKeySIWXWallet       = "x402.siwx.wallet"
	metaKeyPayer            = "x402.payer"
	metaKeyPaymentSignature = "paymentSignature"
	metaKeySessionWallet    = "sessionWallet"
)

// MarshalJSON flattens PaymentMeta into the Metadata map so the wire
// representation stays a single flat object regardless of whether callers
// built the Message via the typed fields or the raw map.
func (m Message) MarshalJSON() ([]byte, error) {
	type wire struct {
		MessageID string         `json:"messageId"`
		Role      Role           `json:"role"`
		Kind      string         `json:"kind"`
		Parts     []Part         `json:"parts"`
		TaskID    string         `json:"taskId,omitempty"`
		ContextID string         `json:"contextId,omitempty"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}

	meta := mergedMetadata(m.Metadata, m.PaymentMeta)
	kind := m.Kind
	if kind == "" {
		kind = "message"
	}
	return json.Marshal(wire{
		MessageID: m.MessageID,
		Role:      m.Role,
		Kind:      kind,
		Parts:     m.Parts,
		TaskID:    m.TaskID,
		ContextID: m.ContextID,
		Metadata:  meta,
	})
}

// UnmarshalJSON populates both the pass-through Metadata map and the typed
// PaymentMeta view from the same flat JSON object.
func (m *Message) UnmarshalJSON(data []byte) error {
	type wire struct {
		MessageID string         `json:"messageId"`
		Role      Role           `json:"role"`
		Kind      string         `json:"kind"`
		Parts     []Part         `json:"parts"`
		TaskID    string         `json:"taskId,omitempty"`
		ContextID string         `json:"contextId,omitempty"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.MessageID = w.MessageID
	m.Role = w.Role
	m.Kind = w.Kind
	m.Parts = w.Parts
	m.TaskID = w.TaskID
	m.ContextID = w.ContextID
	m.Metadata = w.Metadata
	m.PaymentMeta = extractPaymentMetadata(w.Metadata)
	return nil
}

func mergedMetadata(base map[string]any, pm *PaymentMetadata) map[string]any {
	if pm == nil {
		return base
	}
	out := map[string]any{}
	for k, v := range base {
		out[k] = v
	}
	if pm.Status != "" {
		out[metaKeyPaymentStatus] = pm.Status
	}
	if pm.Payload != nil {
		out[metaKeyPaymentPayload] = pm.Payload
	}
	if pm.SIWXWallet != "" {
		out[metaKeySIWXWallet] = pm.SIWXWallet
	}
	if pm.Payer != "" {
		out[metaKeyPayer] = pm.Payer
	}
	if pm.PaymentSignature != nil {
		out[metaKeyPaymentSignature] = pm.PaymentSignature
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func extractPaymentMetadata(meta map[string]any) *PaymentMetadata {
	if meta == nil {
		return nil
	}
	pm := &PaymentMetadata{}
	found := false
	if v, ok := meta[metaKeyPaymentStatus].(string); ok {
		pm.Status = PaymentStatus(v)
		found = true
	}
	if v, ok := meta[metaKeyPaymentPayload].(map[string]any); ok {
		pm.Payload = v
		found = true
	}
	if v, ok := meta[metaKeySIWXWallet].(string); ok {
		pm.SIWXWallet = v
		found = true
	}
	if v, ok := meta[metaKeyPayer].(string); ok {
		pm.Payer = v
		found = true
	}
	if v, ok := meta[metaKeyPaymentSignature].(map[string]any); ok {
		pm.PaymentSignature = v
		found = true
	}
	if !found {
		return nil
	}
	return pm
}

// SessionWallet reads the session-bypass wallet hint out of a message's
// raw metadata bag (rule 6 of §4.6 — not part of the typed PaymentMetadata
// because it is orthogonal to the payment-payload/status fields).
func SessionWallet(meta map[string]any) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[metaKeySessionWallet].(string); ok {
		return v
	}
	return ""
}

// SetSessionWallet stamps the session-bypass wallet hint on a metadata map,
// creating it if nil.
func SetSessionWallet(meta map[string]any, wallet string) map[string]any {
	if meta == nil {
		meta = map[string]any{}
	}
	meta[metaKeySessionWallet] = wallet
	return meta
}
