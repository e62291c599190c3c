package lambdafn

import (
	"context"
	"strings"

	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"

	authorizerapp "github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/app/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/logger"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/tracer"
)

const (
	authorizationField = "Authorization"
	bearerPrefix       = "Bearer "
)

// RestHandler authorizes REST API invocations. The bearer token arrives in
// the Authorization header, with the query parameter of the same name as a
// fallback.
type RestHandler struct {
	appService authorizerapp.Service
}

func NewRestHandler(appService authorizerapp.Service) *RestHandler {
	return &RestHandler{appService: appService}
}

func (h *RestHandler) Handle(
	ctx context.Context,
	req events.APIGatewayCustomAuthorizerRequestTypeRequest,
) (Response, error) {
	ctx, span := tracer.Start(ctx, "transport.lambdafn.Rest")
	defer span.End()

	token := tokenFromHeaders(req.Headers)
	if token == "" {
		token = normalizeToken(req.QueryStringParameters[authorizationField])
	}
	if token == "" {
		span.SetAttributes(attribute.Bool("authz.missing_token", true))
		logger.WarnContext(ctx, "bearer token missing from header and query string")
		return Response{}, authorizer.ErrUnauthorized
	}

	decision, err := h.appService.Authorize(ctx, token, req.MethodArn)
	if err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "authorization failed", slog.String("error", err.Error()))
		return Response{}, authorizer.ErrUnauthorized
	}

	return newResponse(decision), nil
}

// tokenFromHeaders performs a case-insensitive Authorization lookup; gateways
// forward header casing as the client sent it.
func tokenFromHeaders(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, authorizationField) {
			return normalizeToken(v)
		}
	}
	return ""
}

// normalizeToken strips surrounding whitespace and an optional
// case-insensitive Bearer prefix.
func normalizeToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		raw = raw[len(bearerPrefix):]
	}
	return strings.TrimSpace(raw)
}
