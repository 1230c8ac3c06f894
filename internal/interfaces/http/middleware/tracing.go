package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopsync/backend/internal/domain/storefront"
)

// maxHeaderAttrLength caps header-derived span attribute values. Headers are
// caller controlled and must not balloon span payloads.
const maxHeaderAttrLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// TracingWithConfig returns OpenTelemetry tracing middleware. It wraps
// otelgin and enriches the request span with attributes specific to the
// sync pipeline:
//   - request_id: from the RequestID middleware or X-Request-ID header
//   - shop.domain: from the X-Shopify-Shop-Domain webhook header
//
// When tracing is disabled the middleware is a passthrough.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	baseMiddleware := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		// otelgin creates the span and runs the rest of the chain.
		baseMiddleware(c)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := traceRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if shopDomain := clampHeaderAttr(c.GetHeader(storefront.ShopDomainHeader)); shopDomain != "" {
		span.SetAttributes(attribute.String("shop.domain", shopDomain))
	}
}

func traceRequestID(c *gin.Context) string {
	if requestID := GetRequestID(c); requestID != "" {
		return requestID
	}
	return clampHeaderAttr(c.GetHeader("X-Request-ID"))
}

func clampHeaderAttr(v string) string {
	if len(v) > maxHeaderAttrLength {
		return v[:maxHeaderAttrLength]
	}
	return v
}

// TracingAttributeInjector enriches the current span with request attributes
// while the request is still in flight. It must run after both Tracing and
// RequestID in the chain so the request id is already set.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()
	}
}

// SpanErrorMarker marks the request span with error status for 4xx and 5xx
// responses. It must run after the Tracing middleware in the chain.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(statusCode))
			span.SetAttributes(attribute.Int("http.status_code", statusCode))
		}
	}
}
