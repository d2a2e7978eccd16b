package gatekeeper

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's IP for rate limiting and audit
// attribution. Transport adapters set it once per request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the attached IP, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
