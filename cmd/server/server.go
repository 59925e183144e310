package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/civic-events/api"
	"github.com/irsalhamdi/civic-events/api/background"
	"github.com/irsalhamdi/civic-events/config"
	"github.com/irsalhamdi/civic-events/core/account"
	"github.com/irsalhamdi/civic-events/core/cart"
	"github.com/irsalhamdi/civic-events/core/order"
	"github.com/irsalhamdi/civic-events/database"
	"github.com/irsalhamdi/civic-events/rate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "CIVIC"
	var cfg config.Config
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if err == conf.ErrHelpWanted {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	logger.Infof("config:\n%s", out)

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate the database: %w", err)
	}

	carts, closeCarts, err := openCarts(cfg, db)
	if err != nil {
		return err
	}
	defer closeCarts()

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.Name = cfg.Session.CookieName
	sessionManager.Cookie.Secure = cfg.Session.Secure
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	bg := background.New(logger)

	pp, err := paypal.NewClient(
		cfg.Paypal.ClientID,
		cfg.Paypal.Secret,
		cfg.Paypal.URL,
	)
	if err != nil {
		return fmt.Errorf("failed to build the paypal client: %w", err)
	}

	if _, err = pp.GetAccessToken(context.TODO()); err != nil {
		return fmt.Errorf("failed to get the first paypal access token: %w", err)
	}

	strp := stripeClient(cfg.Stripe)

	stripeGw := order.NewGateway(order.ProviderStripe, order.NewStripe(strp, cfg.Stripe), cfg.Breaker, logger)
	paypalCl := order.NewPaypal(pp, cfg.Paypal)
	paypalGw := order.NewGateway(order.ProviderPaypal, paypalCl, cfg.Breaker, logger)

	var pub order.Publisher = order.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := order.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer kp.Close()
		pub = kp
	}

	monitor, err := account.NewMonitor(account.NewStripeFetcher(strp, cfg.Stripe.AccountID), cfg.Stripe.AccountStaleness, logger)
	if err != nil {
		return fmt.Errorf("creating account monitor: %w", err)
	}
	if cfg.Stripe.AccountID != "" {
		bg.Go("account-status", monitor.Run)
	}

	limiter := rate.NewLimiter(cfg.RateLimit.Burst, time.Duration(cfg.RateLimit.Expiry)*time.Minute, rate.Every(cfg.RateLimit.Interval))
	defer limiter.Close()

	guard := cart.NewGuard()
	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		DB:         db,
		Session:    sessionManager,
		AdminKey:   cfg.Admin.APIKey,
		Carts:      carts,
		Limiter:    limiter,
		Stripe:     cart.NewSubmitter(stripeGw, guard),
		StripeCfg:  cfg.Stripe,
		Paypal:     cart.NewSubmitter(paypalGw, guard),
		PaypalCl:   paypalCl,
		Publisher:  pub,
		Account:    monitor,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

// openCarts builds the side-store carts are mirrored to.
func openCarts(cfg config.Config, db *sqlx.DB) (cart.Persister, func(), error) {
	switch cfg.Cart.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Address, err)
		}
		return cart.NewRedisPersister(rdb, cfg.Cart.TTL), func() { rdb.Close() }, nil

	case "postgres":
		return cart.NewPostgresPersister(db), func() {}, nil

	case "memory":
		return cart.NewMemoryPersister(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown cart store %q", cfg.Cart.Store)
}

// stripeClient never retries on its own: the checkout request id is the
// idempotency key and retrying is left to the visitor.
func stripeClient(cfg config.Stripe) *stripecl.API {
	bcfg := &stripe.BackendConfig{MaxNetworkRetries: stripe.Int64(0)}
	if cfg.URL != "" {
		bcfg.URL = stripe.String(cfg.URL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bcfg)

	strp := &stripecl.API{}
	strp.Init(cfg.APISecret, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return strp
}
