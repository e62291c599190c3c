package authorizer

import (
	"context"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
)

type Service interface {
	Authorize(ctx context.Context, rawToken, methodARN string) (*authorizer.Decision, error)
}

type service struct {
	domainService authorizer.Service
}

func NewService(domainService authorizer.Service) Service {
	return &service{
		domainService: domainService,
	}
}

func (s *service) Authorize(ctx context.Context, rawToken, methodARN string) (*authorizer.Decision, error) {
	ctx, span := tracer.Start(ctx, "app.authorizer.Authorize")
	defer span.End()

	span.SetAttributes(
		attribute.String("token.prefix", tokenPrefix(rawToken)),
		attribute.String("request.method_arn", methodARN),
	)

	decision, err := s.domainService.Authorize(ctx, rawToken, methodARN)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if authorizer.IsDenyAll(decision.Policy) {
		span.SetAttributes(attribute.Bool("authz.allowed", false))
	} else {
		span.SetAttributes(
			attribute.Bool("authz.allowed", true),
			attribute.Int("authz.statements", len(decision.Policy.Statement)),
		)
	}

	return decision, nil
}

const tokenPrefixLength = 8

// tokenPrefix truncates the token for span attributes; the raw credential
// never leaves the process.
func tokenPrefix(token string) string {
	if len(token) > tokenPrefixLength {
		return token[:tokenPrefixLength] + "..."
	}
	return "***"
}
