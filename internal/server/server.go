// Package server wires the gateway's stores, the payment state machine, and
// the three HTTP surfaces (JSON-RPC, REST x402, discovery) into one chi
// router, and owns the snapshot persister's lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/jhaveripatric/x402-agent-gateway/internal/auth"
	"github.com/jhaveripatric/x402-agent-gateway/internal/config"
	"github.com/jhaveripatric/x402-agent-gateway/internal/discovery"
	"github.com/jhaveripatric/x402-agent-gateway/internal/eventlog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/executor"
	"github.com/jhaveripatric/x402-agent-gateway/internal/facilitator"
	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
	"github.com/jhaveripatric/x402-agent-gateway/internal/middleware"
	"github.com/jhaveripatric/x402-agent-gateway/internal/restserver"
	"github.com/jhaveripatric/x402-agent-gateway/internal/rpcserver"
	"github.com/jhaveripatric/x402-agent-gateway/internal/session"
	"github.com/jhaveripatric/x402-agent-gateway/internal/snapshot"
	"github.com/jhaveripatric/x402-agent-gateway/internal/statemachine"
	"github.com/jhaveripatric/x402-agent-gateway/internal/taskstore"
)

// Server is the HTTP gateway server.
type Server struct {
	cfg       *config.Config
	router    chi.Router
	persister *snapshot.Persister
	logger    logx.Logger
}

// New constructs the gateway server: every store, the payment state
// machine, and the mounted HTTP surfaces.
func New(cfg *config.Config, logger logx.Logger) *Server {
	if logger == nil {
		logger = logx.NoopLogger{}
	}

	tasks := taskstore.New()
	sessions := session.New()
	events := eventlog.New()

	persister := snapshot.New(cfg.Gateway.SnapshotPath, events, sessions, tasks, logger)
	persister.Load()

	exec := executor.New(executor.Config{
		ScreenshotURL: cfg.Backend.ScreenshotURL,
		PDFURL:        cfg.Backend.PDFURL,
		AIProviderURL: cfg.Backend.AIProviderURL,
		AIProviderKey: cfg.Backend.AIProviderKey,
	}, logger)

	machine := statemachine.New(tasks, sessions, events, facilitator.NewTestModeAdapter(), exec, logger)

	verifier := buildVerifier(cfg.Auth, logger)

	s := &Server{cfg: cfg, persister: persister, logger: logger}
	s.router = s.buildRouter(machine, tasks, sessions, events, verifier)
	return s
}

// buildVerifier loads the wallet-assertion JWT verifier from configured
// key files. A verifier with no loaded keys is still returned: the
// session-bypass path treats that as "wallet assertion unavailable" and
// falls back to the unauthenticated sessionWallet hint.
func buildVerifier(cfg config.AuthConfig, logger logx.Logger) *auth.Verifier {
	v := auth.NewVerifier(cfg.Issuer, cfg.Audience)
	for _, k := range cfg.Keys {
		if err := v.LoadPublicKey(k.KeyID, k.PublicKeyPath); err != nil {
			logger.Warn("server: failed to load wallet-assertion key", map[string]any{"kid": k.KeyID, "error": err.Error()})
		}
	}
	return v
}

func (s *Server) buildRouter(machine *statemachine.Machine, tasks *taskstore.Store, sessions *session.Store, events *eventlog.Log, verifier *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Security)
	r.Use(middleware.Recovery(s.logger))
	r.Use(cors.Handler(middleware.CORSOptions(s.cfg.Gateway.CORS.AllowedOrigins)))
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.WalletAuth(verifier))

	rpcDispatcher := rpcserver.New(machine, s.logger)
	r.Post("/", rpcDispatcher.ServeHTTP)
	r.Post("/a2a", rpcDispatcher.ServeHTTP)

	restDispatcher := restserver.New(machine, s.logger)
	restDispatcher.Routes(r)

	disco := discovery.New(s.cfg.Gateway.PublicURL, s.cfg.Stats.APIKey, tasks, sessions, events, s.persister.StartedAt)
	r.Get("/.well-known/agent-card.json", disco.AgentCard)
	r.Get("/x402", disco.Catalogue)
	r.Get("/x402/bazaar", disco.Bazaar)
	r.Get("/x402/chains", disco.Chains)
	r.Get("/a2a-x402-compat", disco.Compat)
	r.Get("/a2a-x402-test", disco.SelfTest)
	r.Get("/stats", disco.Stats)
	r.Get("/health", disco.Health)

	r.Options("/*", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	return r
}

// Run starts the HTTP server, schedules periodic snapshots, and blocks
// until ctx is cancelled, at which point it saves a final snapshot and
// shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	stopSnapshots := s.persister.Start(s.cfg.Gateway.SnapshotInterval.Duration())
	defer stopSnapshots()

	addr := fmt.Sprintf(":%d", s.cfg.Gateway.Port)
	httpServer := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", map[string]any{"addr": addr})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.persister.Save()
		return httpServer.Shutdown(shutdownCtx)
	}
}
