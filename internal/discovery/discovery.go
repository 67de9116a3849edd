// Package discovery implements the discovery and introspection surface
// (C10): the agent card, the x402 service catalogue, chain metadata, the
// compatibility matrix, the self-test, stats, and health.
package discovery

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jhaveripatric/x402-agent-gateway/internal/a2a"
	"github.com/jhaveripatric/x402-agent-gateway/internal/catalog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/eventlog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/executor"
	"github.com/jhaveripatric/x402-agent-gateway/internal/facilitator"
	"github.com/jhaveripatric/x402-agent-gateway/internal/money"
	"github.com/jhaveripatric/x402-agent-gateway/internal/payment"
	"github.com/jhaveripatric/x402-agent-gateway/internal/session"
	"github.com/jhaveripatric/x402-agent-gateway/internal/statemachine"
	"github.com/jhaveripatric/x402-agent-gateway/internal/taskstore"
)

// Handler serves the discovery and introspection endpoints.
type Handler struct {
	publicURL string
	statsKey  string
	tasks     *taskstore.Store
	sessions  *session.Store
	events    *eventlog.Log
	startedAt func() time.Time
	bootedAt  time.Time
}

// New creates a discovery handler bound to the gateway's stores.
func New(publicURL, statsKey string, tasks *taskstore.Store, sessions *session.Store, events *eventlog.Log, startedAt func() time.Time) *Handler {
	return &Handler{
		publicURL: publicURL,
		statsKey:  statsKey,
		tasks:     tasks,
		sessions:  sessions,
		events:    events,
		startedAt: startedAt,
		bootedAt:  time.Now(),
	}
}

// AgentCard serves GET /.well-known/agent-card.json.
func (h *Handler) AgentCard(w http.ResponseWriter, r *http.Request) {
	skills := make([]map[string]any, 0, len(catalog.Skills))
	for _, s := range catalog.Skills {
		skills = append(skills, map[string]any{
			"id":          s.ID,
			"description": s.Description,
			"inputModes":  s.InputModes,
			"outputModes": s.OutputModes,
			"tags":        s.Tags,
			"examples":    s.Examples,
		})
	}

	card := map[string]any{
		"name":        "x402-agent-gateway",
		"description": "Pay-per-request agent gateway implementing the x402 HTTP payment protocol over A2A.",
		"url":         h.publicURL,
		"version":     "1.0",
		"skills":      skills,
		"extensions": []map[string]any{
			{"uri": a2a.PaymentExtensionV01URI, "description": "x402 payment extension v0.1", "required": false},
			{"uri": a2a.PaymentExtensionV02URI, "description": "x402 payment extension v0.2", "required": false},
			{
				"uri":         a2a.PaymentConfigExtensionURI,
				"description": "payment configuration: enabled networks",
				"required":    false,
				"params": map[string]any{
					"networks": catalog.Networks,
				},
			},
		},
	}
	writeJSON(w, http.StatusOK, card)
}

// Catalogue serves GET /x402: the service catalogue with prices.
func (h *Handler) Catalogue(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0, len(catalog.Skills))
	for _, s := range catalog.Skills {
		entry := map[string]any{
			"id":          s.ID,
			"description": s.Description,
			"priced":      s.RequiresPayment(),
		}
		if s.RequiresPayment() {
			entry["priceSmallestUnit"] = money.SmallestUnits(s.PriceSmallestUnit)
			entry["priceUsd"] = money.Dollars(s.PriceSmallestUnit, 6)
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"skills": out})
}

// Bazaar serves GET /x402/bazaar: a machine-readable service descriptor.
func (h *Handler) Bazaar(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0, len(catalog.Skills))
	for _, s := range catalog.Skills {
		entry := map[string]any{
			"id":          s.ID,
			"inputSchema": map[string]any{"type": "object", "properties": inputSchemaFor(s)},
			"outputModes": s.OutputModes,
			"endpoints": map[string]any{
				"rest": "/x402/" + s.ID,
				"a2a":  "/a2a",
			},
		}
		if reqs, ok := payment.Build(s); ok {
			entry["accepts"] = reqs.Accepts
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chains":   catalog.Networks,
		"services": out,
	})
}

func inputSchemaFor(s catalog.Skill) map[string]any {
	switch s.ID {
	case "screenshot":
		return map[string]any{"url": map[string]string{"type": "string"}}
	default:
		return map[string]any{"content": map[string]string{"type": "string"}}
	}
}

// Chains serves GET /x402/chains: chain metadata.
func (h *Handler) Chains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"chains": catalog.Networks})
}

// Compat serves GET /a2a-x402-compat: the compatibility matrix.
func (h *Handler) Compat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"taskStates": []a2a.TaskState{
			a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateInputRequired,
			a2a.TaskStateCompleted, a2a.TaskStateFailed, a2a.TaskStateCanceled,
		},
		"paymentStates": []a2a.PaymentStatus{
			a2a.PaymentStatusRequired, a2a.PaymentStatusSubmitted, a2a.PaymentStatusVerified,
			a2a.PaymentStatusCompleted, a2a.PaymentStatusFailed, a2a.PaymentStatusRejected,
		},
		"errorCodes": map[string]int{
			"invalidRequest": a2a.ErrCodeInvalidRequest,
			"methodNotFound": a2a.ErrCodeMethodNotFound,
			"invalidParams":  a2a.ErrCodeInvalidParams,
			"taskNotFound":   a2a.ErrCodeTaskNotFound,
		},
		"paymentRequirementFields": []string{
			"version", "accepts", "resource", "description", "facilitator", "extensions",
		},
		"extensions": []string{a2a.PaymentExtensionV01URI, a2a.PaymentExtensionV02URI, a2a.PaymentConfigExtensionURI},
	})
}

type selfTestResult struct {
	TestName string `json:"test-name"`
	Pass     bool   `json:"pass"`
	Detail   string `json:"detail"`
}

// SelfTest serves GET /a2a-x402-test: the conformance self-test.
func (h *Handler) SelfTest(w http.ResponseWriter, r *http.Request) {
	results := []selfTestResult{
		h.testInvariant2(),
		h.testInvariant5(),
		h.testSessionBypass(),
		h.testReceiptShape(),
		h.testFreeSkillHasNoRequirements(),
		h.testRequirementFields(),
		h.testStateSetComplete(),
		h.testErrorCodeSetComplete(),
	}

	allPassed := true
	for _, res := range results {
		if !res.Pass {
			allPassed = false
			break
		}
	}

	status := "all passed"
	if !allPassed {
		status = "failures present"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "results": results})
}

// selfTestPaidFlow drives a priced skill through a full paid-execution
// cycle on a throwaway machine (own stores, own in-process executor) and
// returns the completed task alongside that machine's session store and
// event log, so self-test checks assert against live state from a real
// decision path rather than static field presence.
func selfTestPaidFlow() (*a2a.Task, *session.Store, *eventlog.Log, string, string, error) {
	skill, ok := catalog.ByID("ai-analysis")
	if !ok || !skill.RequiresPayment() {
		return nil, nil, nil, "", "", fmt.Errorf("no priced skill available to exercise")
	}

	sessions := session.New()
	events := eventlog.New()
	machine := statemachine.New(
		taskstore.New(),
		sessions,
		events,
		facilitator.NewTestModeAdapter(),
		executor.New(executor.Config{}, nil),
		nil,
	)

	const wallet = "0xselftest"
	msg := a2a.Message{
		MessageID: "self-test",
		Role:      a2a.RoleUser,
		Kind:      "message",
		Parts:     []a2a.Part{a2a.TextPart("Please analyze: self-test passage")},
		PaymentMeta: &a2a.PaymentMetadata{
			Status:  a2a.PaymentStatusSubmitted,
			Payload: map[string]any{"network": "eip155:8453", "from": wallet, "scheme": "exact"},
		},
	}

	task, err := machine.Handle(context.Background(), msg)
	if err != nil {
		return nil, nil, nil, "", "", err
	}
	return task, sessions, events, wallet, skill.ID, nil
}

// testInvariant2 checks invariant 2: a priced task reaches completed only
// after its paymentStatus has passed through payment-verified.
func (h *Handler) testInvariant2() selfTestResult {
	const name = "invariant-2-priced-completion-requires-verified-payment"

	task, _, events, _, _, err := selfTestPaidFlow()
	if err != nil || task.Status.State != a2a.TaskStateCompleted {
		return selfTestResult{TestName: name, Pass: false, Detail: "self-test task did not reach completed"}
	}

	var sawVerified bool
	for _, e := range events.All() {
		if e.TaskID == task.ID && e.Kind == eventlog.KindPaymentVerified {
			sawVerified = true
		}
	}
	return selfTestResult{TestName: name, Pass: sawVerified, Detail: "priced task reached completed only after a payment-verified event"}
}

// testInvariant5 checks invariant 5: every payment-required event has a
// matching task-id in the task store at the moment of emission. It drives a
// priced skill to input-required on a throwaway machine with no payment
// attached, then resolves the resulting event's task-id against that
// machine's own task store.
func (h *Handler) testInvariant5() selfTestResult {
	const name = "invariant-5-payment-required-event-has-task"

	skill, ok := catalog.ByID("screenshot")
	if !ok || !skill.RequiresPayment() {
		return selfTestResult{TestName: name, Pass: false, Detail: "no priced skill available to exercise"}
	}

	tasks := taskstore.New()
	events := eventlog.New()
	machine := statemachine.New(
		tasks,
		session.New(),
		events,
		facilitator.NewTestModeAdapter(),
		executor.New(executor.Config{}, nil),
		nil,
	)

	msg := a2a.Message{
		MessageID: "self-test",
		Role:      a2a.RoleUser,
		Kind:      "message",
		Parts:     []a2a.Part{a2a.TextPart("Take a screenshot of https://example.com")},
	}

	task, err := machine.Handle(context.Background(), msg)
	if err != nil || task.Status.State != a2a.TaskStateInputRequired {
		return selfTestResult{TestName: name, Pass: false, Detail: "priced skill did not reach input-required"}
	}

	for _, e := range events.All() {
		if e.Kind != eventlog.KindPaymentRequired || e.TaskID != task.ID {
			continue
		}
		if _, err := tasks.Get(e.TaskID); err == nil {
			return selfTestResult{TestName: name, Pass: true, Detail: "payment-required event's task-id resolves in the task store"}
		}
	}
	return selfTestResult{TestName: name, Pass: false, Detail: "no payment-required event with a resolvable task-id"}
}

// testSessionBypass checks §8 property 1: a wallet × skill pair is present
// in the session store only alongside a matching payment-settled event.
func (h *Handler) testSessionBypass() selfTestResult {
	const name = "property-1-session-entry-has-settled-event"

	task, sessions, events, wallet, skillID, err := selfTestPaidFlow()
	if err != nil || task.Status.State != a2a.TaskStateCompleted {
		return selfTestResult{TestName: name, Pass: false, Detail: "self-test task did not reach completed"}
	}
	if !sessions.Has(wallet, skillID) {
		return selfTestResult{TestName: name, Pass: false, Detail: "session store has no entry after settlement"}
	}

	var sawSettled bool
	for _, e := range events.All() {
		if e.Kind == eventlog.KindPaymentSettled && e.Wallet == wallet && e.Skill == skillID {
			sawSettled = true
		}
	}
	return selfTestResult{TestName: name, Pass: sawSettled, Detail: "session store entry has a matching payment-settled event"}
}

// testReceiptShape checks §8 property 2: a completed priced task carries a
// non-empty receipts list whose first entry succeeded with a transaction id.
func (h *Handler) testReceiptShape() selfTestResult {
	const name = "property-2-completed-task-has-success-receipt"

	task, _, _, _, _, err := selfTestPaidFlow()
	if err != nil || task.Status.State != a2a.TaskStateCompleted {
		return selfTestResult{TestName: name, Pass: false, Detail: "self-test task did not reach completed"}
	}

	receipts, _ := task.Metadata["receipts"].([]payment.Receipt)
	if len(receipts) == 0 || !receipts[0].Success || receipts[0].Transaction == "" {
		return selfTestResult{TestName: name, Pass: false, Detail: "completed task missing a success receipt with a transaction id"}
	}
	return selfTestResult{TestName: name, Pass: true, Detail: "completed task carries a non-empty success receipt"}
}

// testFreeSkillHasNoRequirements checks that free skills never carry a
// payment requirement (not one of the numbered invariants; a catalogue
// sanity check).
func (h *Handler) testFreeSkillHasNoRequirements() selfTestResult {
	const name = "free-skill-no-payment-requirement"
	for _, s := range catalog.Skills {
		if s.RequiresPayment() {
			continue
		}
		if _, ok := payment.Build(s); ok {
			return selfTestResult{TestName: name, Pass: false, Detail: "free skill " + s.ID + " produced requirements"}
		}
	}
	return selfTestResult{TestName: name, Pass: true, Detail: "no free skill produced payment requirements"}
}

func (h *Handler) testRequirementFields() selfTestResult {
	priced := catalog.PricedSkills()
	if len(priced) == 0 {
		return selfTestResult{TestName: "payment-requirement-fields", Pass: false, Detail: "no priced skills to test against"}
	}
	reqs, ok := payment.Build(priced[0])
	if !ok || reqs.Version == "" || len(reqs.Accepts) != len(catalog.Networks) || reqs.Resource == "" {
		return selfTestResult{TestName: "payment-requirement-fields", Pass: false, Detail: "requirements object missing expected fields"}
	}
	return selfTestResult{TestName: "payment-requirement-fields", Pass: true, Detail: "version, accepts, resource present"}
}

func (h *Handler) testStateSetComplete() selfTestResult {
	states := []a2a.TaskState{
		a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateInputRequired,
		a2a.TaskStateCompleted, a2a.TaskStateFailed, a2a.TaskStateCanceled,
	}
	return selfTestResult{TestName: "state-set-completeness", Pass: len(states) == 6, Detail: "six task states declared"}
}

func (h *Handler) testErrorCodeSetComplete() selfTestResult {
	ok := a2a.ErrCodeInvalidRequest == -32600 && a2a.ErrCodeMethodNotFound == -32601 &&
		a2a.ErrCodeInvalidParams == -32602 && a2a.ErrCodeTaskNotFound == -32001
	return selfTestResult{TestName: "error-code-set-completeness", Pass: ok, Detail: "JSON-RPC error codes match the declared set"}
}

// Stats serves GET /stats: aggregated counters, gated behind a shared
// secret when one is configured.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	authorized := h.statsKey == "" || h.authorized(r)

	byState := h.tasks.CountByState()
	byKind := h.events.CountByKind()
	revenue := estimateRevenue(h.events.All())

	public := map[string]any{
		"totalTasks":   h.tasks.Total(),
		"sessionCount": h.sessions.Count(),
		"startedAt":    h.startedAt(),
	}
	if !authorized {
		writeJSON(w, http.StatusOK, public)
		return
	}

	public["tasksByState"] = byState
	public["eventsByKind"] = byKind
	public["estimatedRevenueSmallestUnit"] = money.SmallestUnits(revenue)
	writeJSON(w, http.StatusOK, public)
}

// estimateRevenue sums each settled event's skill price, looked up from the
// catalogue by the skill id the event carries (§4.9: "revenue inferred from
// settled events × skill price").
func estimateRevenue(events []eventlog.Event) int64 {
	var total int64
	for _, e := range events {
		if e.Kind != eventlog.KindPaymentSettled {
			continue
		}
		if skill, ok := catalog.ByID(e.Skill); ok {
			total += skill.PriceSmallestUnit
		}
	}
	return total
}

func (h *Handler) authorized(r *http.Request) bool {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return subtle.ConstantTimeCompare([]byte(key), []byte(h.statsKey)) == 1
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(h.statsKey)) == 1
	}
	return false
}

// Health serves GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.bootedAt).String(),
		"timestamp": time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
