package http

import (
	"context"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

// headerCarrier adapts a resty request to the otel propagation carrier.
type headerCarrier struct {
	request *resty.Request
}

func (c *headerCarrier) Get(key string) string {
	return c.request.Header.Get(key)
}

func (c *headerCarrier) Set(key, value string) {
	c.request.SetHeader(key, value)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.request.Header))
	for k := range c.request.Header {
		keys = append(keys, k)
	}
	return keys
}

func injectTracingHeaders(ctx context.Context, request *resty.Request) {
	if propagator := otel.GetTextMapPropagator(); propagator != nil {
		propagator.Inject(ctx, &headerCarrier{request: request})
	}
}
