// Package restserver implements the REST x402 dispatcher (C9): per-skill
// GET/POST routes that speak the x402 HTTP 402 handshake directly, as an
// alternative surface to the JSON-RPC/A2A dispatcher over the same payment
// state machine collaborators.
package restserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jhaveripatric/x402-agent-gateway/internal/a2a"
	"github.com/jhaveripatric/x402-agent-gateway/internal/catalog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/eventlog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
	"github.com/jhaveripatric/x402-agent-gateway/internal/payment"
	"github.com/jhaveripatric/x402-agent-gateway/internal/statemachine"
)

// requiredArgs names the body field each skill needs to run. Missing it is
// a 400, not a payment-flow error.
var requiredArgs = map[string]string{
	"screenshot":       "url",
	"markdown-to-pdf":  "content",
	"markdown-to-html": "content",
	"ai-analysis":      "content",
}

// Dispatcher serves the per-skill x402 GET/POST routes.
type Dispatcher struct {
	machine *statemachine.Machine
	logger  logx.Logger
}

// New creates a REST x402 dispatcher bound to a payment state machine.
func New(machine *statemachine.Machine, logger logx.Logger) *Dispatcher {
	if logger == nil {
		logger = logx.NoopLogger{}
	}
	return &Dispatcher{machine: machine, logger: logger}
}

// Routes mounts GET/POST /x402/{skillID} on the given router.
func (d *Dispatcher) Routes(r chi.Router) {
	r.Get("/x402/{skillID}", d.handleGet)
	r.Post("/x402/{skillID}", d.handlePost)
}

func (d *Dispatcher) handleGet(w http.ResponseWriter, r *http.Request) {
	skill, ok := catalog.ByID(chi.URLParam(r, "skillID"))
	if !ok {
		writeJSONErr(w, http.StatusNotFound, "unknown skill")
		return
	}
	if !skill.RequiresPayment() {
		writeJSONErr(w, http.StatusBadRequest, "skill is free; use POST")
		return
	}
	writeRequirements(w, skill)
}

func (d *Dispatcher) handlePost(w http.ResponseWriter, r *http.Request) {
	skill, ok := catalog.ByID(chi.URLParam(r, "skillID"))
	if !ok {
		writeJSONErr(w, http.StatusNotFound, "unknown skill")
		return
	}

	var body map[string]any
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONErr(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
	}
	if body == nil {
		body = map[string]any{}
	}

	field := requiredArgs[skill.ID]
	if field != "" {
		if _, ok := body[field].(string); !ok {
			writeJSONErr(w, http.StatusBadRequest, "missing required field: "+field)
			return
		}
	}
	args := map[string]string{}
	for _, k := range []string{"url", "content"} {
		if v, ok := body[k].(string); ok {
			args[k] = v
		}
	}

	if !skill.RequiresPayment() {
		d.runFree(w, r, skill, args)
		return
	}

	header := r.Header.Get("Payment-Signature")
	if header == "" {
		header = r.Header.Get("X-Payment")
	}
	if header == "" {
		writeRequirements(w, skill)
		return
	}

	d.runPaid(w, r, skill, args, body, header)
}

// runFree executes the free markdown-to-html path directly against the
// executor, bypassing payment bookkeeping entirely (§4.8).
func (d *Dispatcher) runFree(w http.ResponseWriter, r *http.Request, skill catalog.Skill, args map[string]string) {
	result := d.machine.Executor.Invoke(r.Context(), skill.ID, args)
	if !result.Success {
		writeJSONErr(w, http.StatusInternalServerError, result.ErrorReason)
		return
	}
	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(result.Body)
}

// runPaid runs the same paid-execution decisions as the payment state
// machine, against a synthetic task created for this REST call, so x402
// HTTP clients and JSON-RPC/A2A clients share one accounting trail.
func (d *Dispatcher) runPaid(w http.ResponseWriter, r *http.Request, skill catalog.Skill, args map[string]string, body map[string]any, header string) {
	raw := decodePaymentHeader(header, body)
	p, err := payment.DecodePayload(raw)
	if err != nil {
		writeJSONErr(w, http.StatusBadRequest, err.Error())
		return
	}

	requirements, _ := payment.Build(skill)
	if !p.MatchesAccepted(requirements) {
		writeJSONErr(w, http.StatusBadRequest, "network not among accepted networks")
		return
	}

	ctx := r.Context()
	taskID := skill.ID + "-" + uuid.New().String()
	t := d.machine.Tasks.Create(taskID, taskID, a2a.TaskStateSubmitted, nil)
	_, _ = d.machine.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
		tt.Metadata["skill"] = skill.ID
		tt.Status.State = a2a.TaskStateWorking
	})

	d.machine.Events.Append(eventlog.KindPaymentReceived, t.ID, skill.ID, p.From, p.Network)
	d.machine.Events.Append(eventlog.KindPaymentVerified, t.ID, skill.ID, p.From, p.Network)

	result := d.machine.Executor.Invoke(ctx, skill.ID, args)
	if !result.Success {
		_, _ = d.machine.Tasks.Mutate(t.ID, func(tt *a2a.Task) { tt.Status.State = a2a.TaskStateFailed })
		writeJSONErr(w, http.StatusInternalServerError, result.ErrorReason)
		return
	}

	txID, err := d.machine.Facilitator.VerifyAndSettle(ctx, p, requirements)
	if err != nil {
		_, _ = d.machine.Tasks.Mutate(t.ID, func(tt *a2a.Task) { tt.Status.State = a2a.TaskStateFailed })
		writeJSONErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	d.machine.Events.Append(eventlog.KindPaymentSettled, t.ID, skill.ID, p.From, p.Network)
	if p.From != "" {
		d.machine.Sessions.Record(p.From, skill.ID)
	}
	_, _ = d.machine.Tasks.Mutate(t.ID, func(tt *a2a.Task) { tt.Status.State = a2a.TaskStateCompleted })

	resp, _ := json.Marshal(map[string]any{"settled": true, "txHash": txID})
	w.Header().Set("X-Payment-Response", base64.StdEncoding.EncodeToString(resp))
	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(result.Body)
}

// decodePaymentHeader prefers a "payment" object in the JSON body (used by
// clients that already parsed the 402 response) and falls back to
// base64-decoding the header value as a JSON payload.
func decodePaymentHeader(header string, body map[string]any) map[string]any {
	if p, ok := body["payment"].(map[string]any); ok {
		return p
	}
	decoded, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(decoded, &raw); err != nil {
		return nil
	}
	return raw
}

func writeRequirements(w http.ResponseWriter, skill catalog.Skill) {
	reqs, _ := payment.Build(skill)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Payment-Required", "true")
	w.WriteHeader(http.StatusPaymentRequired)
	json.NewEncoder(w).Encode(reqs)
}

func writeJSONErr(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
