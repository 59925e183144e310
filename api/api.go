package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/civic-events/api/middleware"
	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/config"
	"github.com/irsalhamdi/civic-events/core/account"
	"github.com/irsalhamdi/civic-events/core/auth"
	"github.com/irsalhamdi/civic-events/core/cart"
	"github.com/irsalhamdi/civic-events/core/event"
	"github.com/irsalhamdi/civic-events/core/order"
	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/irsalhamdi/civic-events/rate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Session    *scs.SessionManager
	AdminKey   string
	Carts      cart.Persister
	Limiter    *rate.Limiter
	Stripe     *cart.Submitter
	StripeCfg  config.Stripe
	Paypal     *cart.Submitter
	PaypalCl   *order.Paypal
	Publisher  order.Publisher
	Account    *account.Monitor
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, auth.Identify(cfg.Session, cfg.AdminKey))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	admin := auth.Admin()
	limit := middleware.RateLimit(cfg.Limiter)
	catalog := product.NewCatalog(cfg.DB)
	orders := order.NewRecorder(cfg.DB)

	a.Handle(http.MethodGet, "/events/{event_id}/products", product.HandleListByEvent(cfg.DB))
	a.Handle(http.MethodGet, "/events/{id}", event.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/events", event.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/events", event.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/events/{id}", event.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts, cfg.Log))
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Carts, cfg.Log))
	a.Handle(http.MethodGet, "/cart/next", cart.HandleNext(cfg.Carts, cfg.Log))
	a.Handle(http.MethodPost, "/cart/items", cart.HandleCreateItem(catalog, cfg.Carts, cfg.Log))
	a.Handle(http.MethodPut, "/cart/items/{id}", cart.HandleUpdateItem(cfg.Carts, cfg.Log))
	a.Handle(http.MethodDelete, "/cart/items/{id}", cart.HandleDeleteItem(cfg.Carts, cfg.Log))
	a.Handle(http.MethodGet, "/cart/items/{id}/status", cart.HandleStatus(cfg.Carts, cfg.Log))
	a.Handle(http.MethodPut, "/cart/items/{id}/registration", cart.HandleSetRegistration(cfg.Carts, cfg.Log))
	a.Handle(http.MethodDelete, "/cart/items/{id}/registration", cart.HandleClearRegistration(cfg.Carts, cfg.Log))

	a.Handle(http.MethodPost, "/orders/paypal", order.HandleCheckout(order.ProviderPaypal, cfg.Paypal, orders, cfg.Carts, cfg.Log), limit)
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.PaypalCl, cfg.Publisher, cfg.Log))
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleCheckout(order.ProviderStripe, cfg.Stripe, orders, cfg.Carts, cfg.Log), limit)
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.DB, cfg.Publisher, cfg.StripeCfg, cfg.Log))
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), admin)

	a.Handle(http.MethodGet, "/payments/account", account.HandleShow(cfg.Account), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
