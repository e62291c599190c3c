package lambdafn

import (
	"context"

	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"

	authorizerapp "github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/app/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/logger"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/tracer"
)

// WebsocketHandler authorizes WebSocket $connect invocations. The handshake
// cannot carry custom headers, so the bearer token arrives exclusively in the
// Authorization query parameter.
type WebsocketHandler struct {
	appService authorizerapp.Service
}

func NewWebsocketHandler(appService authorizerapp.Service) *WebsocketHandler {
	return &WebsocketHandler{appService: appService}
}

func (h *WebsocketHandler) Handle(
	ctx context.Context,
	req events.APIGatewayCustomAuthorizerRequestTypeRequest,
) (Response, error) {
	ctx, span := tracer.Start(ctx, "transport.lambdafn.Websocket")
	defer span.End()

	token := normalizeToken(req.QueryStringParameters[authorizationField])
	if token == "" {
		span.SetAttributes(attribute.Bool("authz.missing_token", true))
		logger.WarnContext(ctx, "bearer token missing from query string")
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
