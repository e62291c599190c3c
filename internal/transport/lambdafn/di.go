package lambdafn

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	authorizerapp "github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/app/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/config"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/infra/cognito"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/infra/policystore"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/logger"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/otel"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/tracer"
)

const (
	restServiceName      = "rest-authorizer"
	websocketServiceName = "websocket-authorizer"
)

// BuildRest wires the header-bearing variant: verifier with a per-request
// app-client existence check, policy repository, domain and app services.
func BuildRest(ctx context.Context, cfg *config.Config) (*RestHandler, error) {
	if cfg.Auth.UserPoolID == "" {
		return nil, fmt.Errorf("USER_POOL_ID is required")
	}

	env, err := buildEnvironment(ctx, cfg, restServiceName)
	if err != nil {
		return nil, err
	}

	verifier := cognito.NewVerifier(cfg.Auth.IssuerURL,
		cognito.WithClientLookup(cognito.NewUserPoolClients(
			cip.NewFromConfig(env.awsCfg), cfg.Auth.UserPoolID)),
	)

	return NewRestHandler(env.appService(verifier)), nil
}

// BuildWebsocket wires the query-string variant: verifier pinned to the
// expected app client, no identity-provider lookup.
func BuildWebsocket(ctx context.Context, cfg *config.Config) (*WebsocketHandler, error) {
	if cfg.Auth.AppClientID == "" {
		return nil, fmt.Errorf("APP_CLIENT_ID is required")
	}

	env, err := buildEnvironment(ctx, cfg, websocketServiceName)
	if err != nil {
		return nil, err
	}

	verifier := cognito.NewVerifier(cfg.Auth.IssuerURL,
		cognito.WithExpectedClientID(cfg.Auth.AppClientID),
	)

	return NewWebsocketHandler(env.appService(verifier)), nil
}

type environment struct {
	awsCfg     aws.Config
	appService func(authorizer.TokenVerifier) authorizerapp.Service
}

// buildEnvironment initializes logging/tracing and the shared backends, and
// returns a constructor that binds them with a variant-specific verifier.
func buildEnvironment(ctx context.Context, cfg *config.Config, serviceName string) (*environment, error) {
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.Format, cfg.Observability.LogSource)

	otelCfg := otel.Config{
		ServiceName:        serviceName,
		EndpointURL:        cfg.Observability.TracingEndpointURL,
		Enabled:            cfg.Observability.TraceEnabled,
		SampleRatio:        1.0,
		Insecure:           true,
		ResourceAttributes: make(map[string]string),
	}
	if err := tracer.InitTracer(serviceName, otelCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	if cfg.Auth.IssuerURL == "" {
		return nil, fmt.Errorf("ISSUER_URL is required")
	}
	if cfg.PolicyStore.TableName == "" {
		return nil, fmt.Errorf("POLICY_TABLE_NAME is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	repo := policystore.NewRepository(dynamodb.NewFromConfig(awsCfg), cfg.PolicyStore.TableName)

	return &environment{
		awsCfg: awsCfg,
		appService: func(verifier authorizer.TokenVerifier) authorizerapp.Service {
			return authorizerapp.NewService(authorizer.NewService(verifier, repo))
		},
	}, nil
}
