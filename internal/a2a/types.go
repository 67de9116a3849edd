// Package a2a defines the JSON-RPC wire types shared by the agent-to-agent
// surface (C8) and the task store (C4). Message parts are modeled as a
// tagged variant (text/data/file) rather than a bag of interface{} fields,
// so unknown-shaped payloads still round-trip through the Kind discriminator.
package a2a

// Role identifies the sender of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// TaskState is one of the six lifecycle states a Task can occupy.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
)

// Terminal reports whether a state cannot be transitioned away from
// (invariant 1: a task's state never regresses from a terminal state).
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	default:
		return false
	}
}

// PaymentStatus is one of the six x402 substates tracked on a task's
// metadata while it carries a priced skill through the payment lifecycle.
type PaymentStatus string

const (
	PaymentStatusRequired  PaymentStatus = "payment-required"
	PaymentStatusSubmitted PaymentStatus = "payment-submitted"
	PaymentStatusVerified  PaymentStatus = "payment-verified"
	PaymentStatusCompleted PaymentStatus = "payment-completed"
	PaymentStatusFailed    PaymentStatus = "payment-failed"
	PaymentStatusRejected  PaymentStatus = "payment-rejected"
)

// PartKind discriminates the Part tagged union.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindData PartKind = "data"
	PartKindFile PartKind = "file"
)

// Part is a single segment of a Message: exactly one of Text, Data, or File
// is populated, selected by Kind. It is encoded through its struct tags;
// codec.go holds the custom marshalling for Message only.
type Part struct {
	Kind PartKind `json:"kind"`

	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
	File *FilePart      `json:"file,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// FilePart is the payload of a Part with Kind == PartKindFile.
type FilePart struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"` // base64
	URI      string `json:"uri,omitempty"`
}

// TextPart is a convenience constructor for the common text-only case.
func TextPart(text string) Part { return Part{Kind: PartKindText, Text: text} }

// DataPart is a convenience constructor for structured JSON payloads.
func DataPart(data map[string]any) Part { return Part{Kind: PartKindData, Data: data} }

// Message is one entry in a Task's history, or the envelope of a
// message/send call. PaymentMeta carries the typed payment-metadata
// sub-object; Metadata is the pass-through bag for everything else so
// unrecognised keys still round-trip.
type Message struct {
	MessageID string `json:"messageId"`
	Role      Role   `json:"role"`
	Kind      string `json:"kind"` // always "message" on the wire
	Parts     []Part `json:"parts"`

	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`

	PaymentMeta *PaymentMetadata `json:"-"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// PaymentMetadata is the typed view of the x402 payment-related metadata
// keys a Message may carry. It is kept as an explicit tagged structure per
// the design notes (avoid opportunistic untyped metadata bags) while still
// serialising to the same flat JSON keys client libraries expect.
type PaymentMetadata struct {
	Status           PaymentStatus  `json:"x402.payment.status,omitempty"`
	Payload          map[string]any `json:"x402.payment.payload,omitempty"`
	SIWXWallet       string         `json:"x402.siwx.wallet,omitempty"`
	Payer            string         `json:"x402.payer,omitempty"`
	PaymentSignature map[string]any `json:"paymentSignature,omitempty"`
}

// TaskStatus is the current lifecycle snapshot of a Task.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Timestamp string    `json:"timestamp,omitempty"`
	Message   *Message  `json:"message,omitempty"`
}

// Task is the unit of work tracked across the two-message Standalone Flow.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Kind      string         `json:"kind"` // always "task"
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []any          `json:"artifacts"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeTaskNotFound   = -32001
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Method  string    `json:"method"`
	Params  RawParams `json:"params"`
}

// Response is a JSON-RPC 2.0 response envelope; exactly one of Result or
// Error is populated.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}
