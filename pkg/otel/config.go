package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

// Config selects the exporter endpoint and the resource identity stamped on
// every span. A disabled config or an empty endpoint yields a no-op tracer,
// which is how the deployed authorizer variants run unless tracing is turned
// on through the environment.
type Config struct {
	ServiceName        string
	EndpointURL        string
	Enabled            bool
	SampleRatio        float64
	Insecure           bool
	ResourceAttributes map[string]string
}

func (c Config) toResourceAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(c.ResourceAttributes)+1)
	attrs = append(attrs, attribute.String("service.name", c.ServiceName))

	for k, v := range c.ResourceAttributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return attrs
}
