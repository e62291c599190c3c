package http

import (
	"context"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/config"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/transport/lambdafn"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/logger"
)

type Server struct {
	httpServer *http.Server
}

const (
	idleTimeoutMultiplier = 2
	serviceName           = "local-authorizer"
)

// NewServer assembles the local development server. Each authorizer variant
// is wired only when its configuration is present, so a developer can run a
// single variant against a real user pool and table.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	var rest *lambdafn.RestHandler
	if cfg.Auth.UserPoolID != "" {
		h, err := lambdafn.BuildRest(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build rest variant: %w", err)
		}
		rest = h
	}

	var websocket *lambdafn.WebsocketHandler
	if cfg.Auth.AppClientID != "" {
		h, err := lambdafn.BuildWebsocket(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build websocket variant: %w", err)
		}
		websocket = h
	}

	if rest == nil && websocket == nil {
		return nil, fmt.Errorf("neither USER_POOL_ID nor APP_CLIENT_ID is configured")
	}

	logger.InfoContext(ctx, "authorizer variants wired",
		slog.Bool("rest", rest != nil),
		slog.Bool("websocket", websocket != nil))

	handler := NewHandler(rest, websocket)
	router := NewRouter(handler, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout * idleTimeoutMultiplier,
	}

	return &Server{
		httpServer: httpServer,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
