package restserver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jhaveripatric/x402-agent-gateway/internal/eventlog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/executor"
	"github.com/jhaveripatric/x402-agent-gateway/internal/facilitator"
	"github.com/jhaveripatric/x402-agent-gateway/internal/session"
	"github.com/jhaveripatric/x402-agent-gateway/internal/statemachine"
	"github.com/jhaveripatric/x402-agent-gateway/internal/taskstore"
)

func newTestRouter() chi.Router {
	machine := statemachine.New(
		taskstore.New(),
		session.New(),
		eventlog.New(),
		facilitator.NewTestModeAdapter(),
		executor.New(executor.Config{}, nil),
		nil,
	)
	r := chi.NewRouter()
	New(machine, nil).Routes(r)
	return r
}

func TestGetUnknownSkillReturns404(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/x402/does-not-exist", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFreeSkillReturns400(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/x402/markdown-to-html", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPricedSkillReturns402WithRequirements(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/x402/screenshot", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["accepts"])
}

func TestPostFreeSkillExecutesDirectly(t *testing.T) {
	r := newTestRouter()
	payload := bytes.NewBufferString(`{"content":"# Hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/x402/markdown-to-html", payload)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Hello")
}

func TestPostMissingRequiredFieldReturns400(t *testing.T) {
	r := newTestRouter()
	payload := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/x402/markdown-to-html", payload)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostPricedSkillWithoutPaymentHeaderReturns402(t *testing.T) {
	r := newTestRouter()
	payload := bytes.NewBufferString(`{"url":"https://example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/x402/screenshot", payload)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestPostPricedSkillWithPaymentHeaderSettles(t *testing.T) {
	r := newTestRouter()
	payment := map[string]any{"network": "eip155:8453", "from": "0xABC", "scheme": "exact"}
	raw, _ := json.Marshal(payment)
	header := base64.StdEncoding.EncodeToString(raw)

	payload := bytes.NewBufferString(`{"content":"please summarize this passage"}`)
	req := httptest.NewRequest(http.MethodPost, "/x402/ai-analysis", payload)
	req.Header.Set("X-Payment", header)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Payment-Response"))
}

func TestPostPricedSkillWithBodyPaymentObjectSettles(t *testing.T) {
	r := newTestRouter()
	payload := bytes.NewBufferString(`{"content":"please summarize this passage","payment":{"network":"eip155:8453","from":"0xDEF","scheme":"exact"}}`)
	req := httptest.NewRequest(http.MethodPost, "/x402/ai-analysis", payload)
	req.Header.Set("Payment-Signature", "ignored-because-body-has-payment-object")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
