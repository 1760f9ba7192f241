package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const RequestIDKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// FromFiberCtx carries the request id set by the request id middleware
// into a context that outlives the fiber.Ctx. Fiber recycles its Ctx after
// the handler returns, so the context is rooted at parent instead.
func FromFiberCtx(parent context.Context, c *fiber.Ctx) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	requestID, ok := c.Locals("X-Request-ID").(string)
	if !ok || requestID == "" {
		requestID = c.Get("X-Request-ID")

		if requestID == "" {
			requestID = "unknown"
		}
	}

	return WithRequestID(parent, requestID)
}
