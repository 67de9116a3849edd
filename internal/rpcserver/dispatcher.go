// Package rpcserver implements the JSON-RPC dispatcher (C8): it accepts
// JSON-RPC 2.0 envelopes at "/" and "/a2a", routes message/send, tasks/get,
// and tasks/cancel to the payment state machine, and performs the
// extension-activation header echo (§4.7).
package rpcserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jhaveripatric/x402-agent-gateway/internal/a2a"
	"github.com/jhaveripatric/x402-agent-gateway/internal/auth"
	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
	"github.com/jhaveripatric/x402-agent-gateway/internal/statemachine"
	"github.com/jhaveripatric/x402-agent-gateway/internal/taskstore"
)

// Dispatcher routes JSON-RPC requests to the payment state machine.
type Dispatcher struct {
	machine *statemachine.Machine
	logger  logx.Logger
}

// New creates a JSON-RPC dispatcher bound to a payment state machine.
func New(machine *statemachine.Machine, logger logx.Logger) *Dispatcher {
	if logger == nil {
		logger = logx.NoopLogger{}
	}
	return &Dispatcher{machine: machine, logger: logger}
}

// ServeHTTP implements http.Handler. It is mounted at both "/" and "/a2a".
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ext := a2a.EchoExtension(r.Header.Get("X-A2A-Extensions")); ext != "" {
		w.Header().Set("X-A2A-Extensions", ext)
	}

	var req a2a.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, a2a.ErrCodeInvalidRequest, "malformed JSON-RPC envelope")
		return
	}
	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, a2a.ErrCodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	switch req.Method {
	case "message/send", "tasks/send":
		d.handleMessageSend(w, r, req)
	case "tasks/get":
		d.handleTasksGet(w, req)
	case "tasks/cancel":
		d.handleTasksCancel(w, req)
	default:
		writeError(w, req.ID, a2a.ErrCodeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (d *Dispatcher) handleMessageSend(w http.ResponseWriter, r *http.Request, req a2a.Request) {
	var params a2a.MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil || len(params.Message.Parts) == 0 {
		writeError(w, req.ID, a2a.ErrCodeInvalidParams, "message.parts missing or empty")
		return
	}

	if a2a.SessionWallet(params.Message.Metadata) == "" {
		if claims := auth.GetClaims(r.Context()); claims != nil && claims.Wallet != "" {
			params.Message.Metadata = a2a.SetSessionWallet(params.Message.Metadata, claims.Wallet)
		}
	}

	task, err := d.machine.Handle(r.Context(), params.Message)
	if err != nil {
		if errors.Is(err, statemachine.ErrMissingText) {
			writeError(w, req.ID, a2a.ErrCodeInvalidParams, "message has no text part")
			return
		}
		d.logger.Error("rpcserver: message/send failed", map[string]any{"error": err.Error()})
		writeError(w, req.ID, a2a.ErrCodeInvalidParams, err.Error())
		return
	}

	writeResult(w, req.ID, task)
}

func (d *Dispatcher) handleTasksGet(w http.ResponseWriter, req a2a.Request) {
	var params a2a.TaskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		writeError(w, req.ID, a2a.ErrCodeInvalidParams, "missing task id")
		return
	}

	task, err := d.machine.Get(params.ID)
	if err != nil {
		if taskstore.IsNotFound(err) {
			writeError(w, req.ID, a2a.ErrCodeTaskNotFound, "task not found")
			return
		}
		writeError(w, req.ID, a2a.ErrCodeInvalidParams, err.Error())
		return
	}
	writeResult(w, req.ID, task)
}

func (d *Dispatcher) handleTasksCancel(w http.ResponseWriter, req a2a.Request) {
	var params a2a.TaskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		writeError(w, req.ID, a2a.ErrCodeInvalidParams, "missing task id")
		return
	}

	task, err := d.machine.Cancel(params.ID)
	if err != nil {
		if taskstore.IsNotFound(err) {
			writeError(w, req.ID, a2a.ErrCodeTaskNotFound, "task not found")
			return
		}
		writeError(w, req.ID, a2a.ErrCodeInvalidParams, err.Error())
		return
	}
	writeResult(w, req.ID, task)
}

func writeResult(w http.ResponseWriter, id any, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a2a.Response{JSONRPC: "2.0", ID: id, Result: result})
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a2a.Response{JSONRPC: "2.0", ID: id, Error: &a2a.RPCError{Code: code, Message: message}})
}
