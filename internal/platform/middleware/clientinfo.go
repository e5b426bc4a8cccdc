package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// ClientInfo is the parsed identity of the calling pipeline step, kept for
// the delivery log.
type ClientInfo struct {
	Name    string
	Version string
}

type contextKeyClientInfo struct{}

// GetClientInfo retrieves the caller's parsed User-Agent from the context.
func GetClientInfo(ctx context.Context) ClientInfo {
	if ci, ok := ctx.Value(contextKeyClientInfo{}).(ClientInfo); ok {
		return ci
	}
	return ClientInfo{}
}

// WithClientInfo injects caller info into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientInfo(ctx context.Context, ci ClientInfo) context.Context {
	return context.WithValue(ctx, contextKeyClientInfo{}, ci)
}

// CaptureClient parses the inbound User-Agent header so downstream code can
// record which host framework invoked us.
func CaptureClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.UserAgent()
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		ua := useragent.New(raw)
		name, version := ua.Browser()
		if name == "" {
			name = raw
		}
		ctx := WithClientInfo(r.Context(), ClientInfo{Name: name, Version: version})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
