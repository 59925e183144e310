package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/api/weberr"
	"github.com/irsalhamdi/civic-events/core/claims"
	"github.com/irsalhamdi/civic-events/validate"
)

const (
	AdminKeyHeader = "X-Admin-Key"

	cartKey = "cart_key"
)

func LoadAndSave(session *scs.SessionManager) web.Middleware {
	return web.Adapt(session.LoadAndSave)
}

// Identify gives every session a stable cart key, minted on first access, and
// exposes it through claims. Must run inside LoadAndSave.
func Identify(session *scs.SessionManager, adminKey string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			key := session.GetString(ctx, cartKey)
			if key == "" {
				key = validate.GenerateID()
				session.Put(ctx, cartKey, key)
			}

			role := claims.RoleVisitor
			if adminKey != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(AdminKeyHeader)), []byte(adminKey)) == 1 {
				role = claims.RoleAdmin
			}

			ctx = claims.Set(ctx, claims.Claims{CartKey: key, Role: role})
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func Admin() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.NotAuthorized(errors.New("admin key missing or invalid"))
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
