package statemachine

import (
	"github.com/google/uuid"

	"github.com/jhaveripatric/x402-agent-gateway/internal/a2a"
	"github.com/jhaveripatric/x402-agent-gateway/internal/executor"
	"github.com/jhaveripatric/x402-agent-gateway/internal/parser"
	"github.com/jhaveripatric/x402-agent-gateway/internal/payment"
)

// extractText returns the text of the first text part in the message.
func extractText(msg a2a.Message) (string, bool) {
	for _, p := range msg.Parts {
		if p.Kind == a2a.PartKindText && p.Text != "" {
			return p.Text, true
		}
	}
	return "", false
}

// correlatedPaymentSubmission reports whether msg carries a payment
// payload directly or declares itself a payment-submitted resubmission
// with a payload attached (rules 3 and 5 of §4.6).
func correlatedPaymentSubmission(msg a2a.Message) bool {
	if msg.PaymentMeta == nil {
		return false
	}
	hasPayload := msg.PaymentMeta.Payload != nil || msg.PaymentMeta.PaymentSignature != nil
	if !hasPayload {
		return false
	}
	if msg.PaymentMeta.Status == a2a.PaymentStatusSubmitted {
		return true
	}
	// A bare attached payload (no explicit status) still counts as a
	// direct submission per rule 5.
	return true
}

// paymentPayloadRaw extracts whichever payload map the message carries,
// preferring the typed payment.payload key over the bare paymentSignature
// key used by REST-originated requests.
func paymentPayloadRaw(msg a2a.Message) map[string]any {
	if msg.PaymentMeta == nil {
		return nil
	}
	if msg.PaymentMeta.Payload != nil {
		return msg.PaymentMeta.Payload
	}
	return msg.PaymentMeta.PaymentSignature
}

// setPaymentStatus stamps the task metadata's paymentStatus field.
func setPaymentStatus(t *a2a.Task, status a2a.PaymentStatus) {
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	t.Metadata["paymentStatus"] = string(status)
}

// attachReceipt appends a receipt to the task metadata's receipts list.
func attachReceipt(t *a2a.Task, r payment.Receipt) {
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	existing, _ := t.Metadata["receipts"].([]payment.Receipt)
	t.Metadata["receipts"] = append(existing, r)
}

// resultMessage builds the agent response message carrying the executor's
// structured or binary output, and the receipt if one was produced.
func resultMessage(taskID, contextID string, result *executor.Result, receipt *payment.Receipt) a2a.Message {
	data := map[string]any{}
	for k, v := range result.Data {
		data[k] = v
	}
	if len(result.Body) > 0 && result.ContentType != "" {
		data["contentType"] = result.ContentType
	}
	if !result.Success && result.ErrorReason != "" {
		data["error"] = result.ErrorReason
	}
	if receipt != nil {
		data["receipt"] = *receipt
	}

	return a2a.Message{
		MessageID: newMessageID(),
		Role:      a2a.RoleAgent,
		Kind:      "message",
		TaskID:    taskID,
		ContextID: contextID,
		Parts:     []a2a.Part{a2a.DataPart(data)},
	}
}

func parserParse(text string) parser.Parsed {
	return parser.Parse(text)
}

func newMessageID() string {
	return uuid.New().String()
}
