// Package statemachine implements the payment state machine (C7): the
// central contract `Handle(message) -> task` that drives a task through
// submitted -> input-required -> completed/failed/canceled, including the
// x402 payment substates, per spec.md §4.6.
package statemachine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhaveripatric/x402-agent-gateway/internal/a2a"
	"github.com/jhaveripatric/x402-agent-gateway/internal/catalog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/eventlog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/executor"
	"github.com/jhaveripatric/x402-agent-gateway/internal/facilitator"
	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
	"github.com/jhaveripatric/x402-agent-gateway/internal/payment"
	"github.com/jhaveripatric/x402-agent-gateway/internal/session"
	"github.com/jhaveripatric/x402-agent-gateway/internal/taskstore"
)

// Machine owns the stores and collaborators the payment lifecycle needs.
// It is the single "server context" value the design notes call for: no
// package-level mutable state, everything is threaded through an owned
// value constructed by main.
type Machine struct {
	Tasks       *taskstore.Store
	Sessions    *session.Store
	Events      *eventlog.Log
	Facilitator facilitator.Adapter
	Executor    *executor.Client
	Logger      logx.Logger
}

// New builds a Machine from its collaborators.
func New(tasks *taskstore.Store, sessions *session.Store, events *eventlog.Log, fac facilitator.Adapter, exec *executor.Client, logger logx.Logger) *Machine {
	if logger == nil {
		logger = logx.NoopLogger{}
	}
	return &Machine{Tasks: tasks, Sessions: sessions, Events: events, Facilitator: fac, Executor: exec, Logger: logger}
}

// ErrMissingText is returned when a message has no text part (-32602 at
// the JSON-RPC layer).
var ErrMissingText = fmt.Errorf("message has no text part")

// Handle runs one message through the payment lifecycle and returns the
// resulting task.
func (m *Machine) Handle(ctx context.Context, msg a2a.Message) (*a2a.Task, error) {
	text, ok := extractText(msg)
	if !ok {
		return nil, ErrMissingText
	}

	if msg.TaskID != "" {
		if t, err := m.Tasks.Get(msg.TaskID); err == nil {
			if msg.PaymentMeta != nil && msg.PaymentMeta.Status == a2a.PaymentStatusRejected {
				return m.reject(t, msg)
			}
			if correlatedPaymentSubmission(msg) {
				return m.paidExecution(ctx, t, msg)
			}
		}
	}

	parsed := parserParse(text)
	skill, ok := catalog.ByID(parsed.SkillID)
	if !ok {
		skill, _ = catalog.ByID("markdown-to-html")
	}

	taskID := uuid.New().String()
	contextID := msg.ContextID
	if contextID == "" {
		contextID = uuid.New().String()
	}
	msg.TaskID = taskID
	msg.ContextID = contextID

	t := m.Tasks.Create(taskID, contextID, a2a.TaskStateSubmitted, &msg)
	t, err := m.Tasks.Mutate(taskID, func(tt *a2a.Task) {
		tt.Metadata["skill"] = skill.ID
		tt.Metadata["args"] = parsed.Args
	})
	if err != nil {
		return nil, err
	}

	if correlatedPaymentSubmission(msg) {
		return m.paidExecution(ctx, t, msg)
	}

	if wallet := a2a.SessionWallet(msg.Metadata); wallet != "" && m.Sessions.Has(wallet, skill.ID) {
		m.Events.Append(eventlog.KindSIWXAccess, taskID, skill.ID, wallet, "")
		return m.freeExecution(ctx, t, skill, parsed.Args)
	}

	if skill.RequiresPayment() {
		return m.paymentRequired(t, skill)
	}

	return m.freeExecution(ctx, t, skill, parsed.Args)
}

// Get returns the stored task for tasks/get.
func (m *Machine) Get(taskID string) (*a2a.Task, error) {
	return m.Tasks.Get(taskID)
}

// Cancel forces a task to canceled for tasks/cancel.
func (m *Machine) Cancel(taskID string) (*a2a.Task, error) {
	return m.Tasks.ForceCancel(taskID)
}

// reject implements the payment-rejection transition (rule 2): the client
// sends paymentStatus=payment-rejected for an existing task, which moves
// straight to canceled.
func (m *Machine) reject(t *a2a.Task, msg a2a.Message) (*a2a.Task, error) {
	skillID, _ := t.Metadata["skill"].(string)

	updated, err := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
		tt.Status.State = a2a.TaskStateCanceled
		tt.Status.Message = &msg
		tt.History = append(tt.History, msg)
		setPaymentStatus(tt, a2a.PaymentStatusRejected)
	})
	if err != nil {
		return nil, err
	}
	m.Events.Append(eventlog.KindPaymentRejected, t.ID, skillID, "", "")
	return updated, nil
}

// paymentRequired implements the payment-required transition (rule 7):
// build requirements, move the task to input-required, and cache the
// accepts list and parsed args so a correlated resubmission can proceed
// without re-parsing.
func (m *Machine) paymentRequired(t *a2a.Task, skill catalog.Skill) (*a2a.Task, error) {
	reqs, ok := payment.Build(skill)
	if !ok {
		return nil, fmt.Errorf("skill %s is not priced", skill.ID)
	}

	respMsg := a2a.Message{
		MessageID: uuid.New().String(),
		Role:      a2a.RoleAgent,
		Kind:      "message",
		TaskID:    t.ID,
		ContextID: t.ContextID,
		PaymentMeta: &a2a.PaymentMetadata{
			Status: a2a.PaymentStatusRequired,
		},
		Metadata: map[string]any{
			"x402PaymentRequired": map[string]any{
				"version": 1,
				"accepts": reqs.Accepts,
			},
		},
	}

	updated, err := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
		tt.Status.State = a2a.TaskStateInputRequired
		tt.Status.Message = &respMsg
		tt.History = append(tt.History, respMsg)
		tt.Metadata["accepts"] = reqs.Accepts
		tt.Metadata["x402PaymentRequired"] = map[string]any{"version": 1, "accepts": reqs.Accepts}
		setPaymentStatus(tt, a2a.PaymentStatusRequired)
	})
	if err != nil {
		return nil, err
	}
	m.Events.Append(eventlog.KindPaymentRequired, t.ID, skill.ID, "", "")
	return updated, nil
}

// freeExecution implements the free-execution path: invoke the executor
// directly, no payment bookkeeping.
func (m *Machine) freeExecution(ctx context.Context, t *a2a.Task, skill catalog.Skill, args map[string]string) (*a2a.Task, error) {
	result := m.Executor.Invoke(ctx, skill.ID, args)

	state := a2a.TaskStateCompleted
	if !result.Success {
		state = a2a.TaskStateFailed
	}

	updated, err := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
		tt.Status.State = state
		respMsg := resultMessage(t.ID, t.ContextID, result, nil)
		tt.Status.Message = &respMsg
		tt.History = append(tt.History, respMsg)
	})
	return updated, err
}

// paidExecution implements the paid-execution path shared by a direct
// payment submission on a new task and a correlated resubmission on an
// existing one (§4.6 "Paid execution path").
func (m *Machine) paidExecution(ctx context.Context, t *a2a.Task, msg a2a.Message) (*a2a.Task, error) {
	skillID, _ := t.Metadata["skill"].(string)
	skill, ok := catalog.ByID(skillID)
	if !ok {
		return nil, fmt.Errorf("task %s has no cached skill", t.ID)
	}
	args, _ := t.Metadata["args"].(map[string]string)

	p, err := payment.DecodePayload(paymentPayloadRaw(msg))
	if err != nil {
		updated, mErr := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
			tt.Status.State = a2a.TaskStateFailed
			setPaymentStatus(tt, a2a.PaymentStatusFailed)
			attachReceipt(tt, payment.FailureReceipt("", "", err.Error()))
		})
		if mErr != nil {
			return nil, mErr
		}
		return updated, nil
	}

	requirements, _ := payment.Build(skill)
	if requirements != nil && !p.MatchesAccepted(requirements) {
		updated, mErr := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
			tt.Status.State = a2a.TaskStateFailed
			setPaymentStatus(tt, a2a.PaymentStatusFailed)
			attachReceipt(tt, payment.FailureReceipt(p.Network, p.From, "network not among accepted networks"))
		})
		if mErr != nil {
			return nil, mErr
		}
		return updated, nil
	}

	claimed := false
	working, err := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
		if tt.Status.State == a2a.TaskStateWorking {
			return
		}
		tt.Status.State = a2a.TaskStateWorking
		setPaymentStatus(tt, a2a.PaymentStatusVerified)
		claimed = true
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		// The task was already working or terminal (e.g. concurrently
		// cancelled, or a second correlated resubmission lost the race) —
		// return it as-is rather than transition it a second time.
		return working, nil
	}

	m.Events.Append(eventlog.KindPaymentReceived, t.ID, skill.ID, p.From, p.Network)
	m.Events.Append(eventlog.KindPaymentVerified, t.ID, skill.ID, p.From, p.Network)

	// The executor call is I/O-bound and must not run under the store's
	// lock; Mutate above already released it.
	result := m.Executor.Invoke(ctx, skill.ID, args)

	if !result.Success {
		updated, mErr := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
			tt.Status.State = a2a.TaskStateFailed
			setPaymentStatus(tt, a2a.PaymentStatusFailed)
			receipt := payment.FailureReceipt(p.Network, p.From, result.ErrorReason)
			attachReceipt(tt, receipt)
			respMsg := resultMessage(t.ID, t.ContextID, result, &receipt)
			tt.Status.Message = &respMsg
			tt.History = append(tt.History, respMsg)
		})
		if mErr != nil {
			return nil, mErr
		}
		return updated, nil
	}

	txID, err := m.Facilitator.VerifyAndSettle(ctx, p, requirements)
	if err != nil {
		updated, mErr := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
			tt.Status.State = a2a.TaskStateFailed
			setPaymentStatus(tt, a2a.PaymentStatusFailed)
			attachReceipt(tt, payment.FailureReceipt(p.Network, p.From, err.Error()))
		})
		if mErr != nil {
			return nil, mErr
		}
		return updated, nil
	}

	m.Events.Append(eventlog.KindPaymentSettled, t.ID, skill.ID, p.From, p.Network)
	if p.From != "" {
		m.Sessions.Record(p.From, skill.ID)
	}
	receipt := payment.SuccessReceipt(txID, p.Network, p.From)

	updated, err := m.Tasks.Mutate(t.ID, func(tt *a2a.Task) {
		tt.Status.State = a2a.TaskStateCompleted
		setPaymentStatus(tt, a2a.PaymentStatusCompleted)
		attachReceipt(tt, receipt)
		tt.Metadata["transactionId"] = txID
		respMsg := resultMessage(t.ID, t.ContextID, result, &receipt)
		tt.Status.Message = &respMsg
		tt.History = append(tt.History, respMsg)
	})
	return updated, err
}
