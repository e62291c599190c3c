package http

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/transport/lambdafn"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/logger"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/tracer"
)

// invocationRequest mirrors the shape the gateway sends a request
// authorizer, so the dev server exercises the exact Lambda semantics.
type invocationRequest struct {
	MethodArn             string            `json:"methodArn"`
	Headers               map[string]string `json:"headers"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
}

func (r invocationRequest) toEvent() events.APIGatewayCustomAuthorizerRequestTypeRequest {
	return events.APIGatewayCustomAuthorizerRequestTypeRequest{
		MethodArn:             r.MethodArn,
		Headers:               r.Headers,
		QueryStringParameters: r.QueryStringParameters,
	}
}

type authorizeFunc func(ctx context.Context, req events.APIGatewayCustomAuthorizerRequestTypeRequest) (lambdafn.Response, error)

// Handler exposes the two authorizer variants over HTTP for local
// development. A variant whose configuration is absent is left nil and
// reported as unavailable.
type Handler struct {
	rest      *lambdafn.RestHandler
	websocket *lambdafn.WebsocketHandler
}

func NewHandler(rest *lambdafn.RestHandler, websocket *lambdafn.WebsocketHandler) *Handler {
	return &Handler{
		rest:      rest,
		websocket: websocket,
	}
}

func (h *Handler) AuthorizeRest(c *gin.Context) {
	if h.rest == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"message": "rest variant is not configured"})
		return
	}
	h.serve(c, "transport.http.AuthorizeRest", h.rest.Handle)
}

func (h *Handler) AuthorizeWebsocket(c *gin.Context) {
	if h.websocket == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"message": "websocket variant is not configured"})
		return
	}
	h.serve(c, "transport.http.AuthorizeWebsocket", h.websocket.Handle)
}

func (h *Handler) serve(c *gin.Context, spanName string, authorize authorizeFunc) {
	ctx, span := tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	var req invocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid invocation body"})
		return
	}

	span.SetAttributes(attribute.String("request.method_arn", req.MethodArn))

	resp, err := authorize(ctx, req.toEvent())
	if err != nil {
		// The gateway maps the authorizer error to a 401; mirror it here.
		logger.WarnContext(ctx, "authorization rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
