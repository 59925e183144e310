package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/api/weberr"
	"github.com/irsalhamdi/civic-events/core/claims"
	"github.com/irsalhamdi/civic-events/rate"
)

// RateLimit throttles per visitor session, falling back to the remote address.
func RateLimit(l *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			key := clientKey(ctx, r)
			if !l.Check(key) {
				return weberr.TooManyRequests(
					errors.New("rate limit exceeded"),
					weberr.WithFields(map[string]interface{}{"client": key}),
				)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func clientKey(ctx context.Context, r *http.Request) string {
	if clm, err := claims.Get(ctx); err == nil && clm.CartKey != "" {
		return "cart:" + clm.CartKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}
