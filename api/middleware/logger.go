package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/core/claims"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger logs one line per request, tagged with the request id and the cart of
// the visitor when the session was identified upstream.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			fields := logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}
			if rid := ContextRequestID(ctx); rid != "" {
				fields["req_id"] = rid
			}
			if clm, err := claims.Get(ctx); err == nil {
				fields["cart"] = clm.CartKey
				fields["role"] = clm.Role
			}
			entry := log.WithFields(fields)

			entry.Debug("started")
			start := time.Now()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			entry.WithFields(logrus.Fields{
				"status":  lw.Status(),
				"bytes":   lw.BytesWritten(),
				"elapsed": time.Since(start).String(),
			}).Info("completed")
			return err
		}
		return h
	}
	return m
}
