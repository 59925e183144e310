package config

import "time"

type Config struct {
	Web       Web
	Cors      Cors
	DB        DB
	Redis     Redis
	Cart      Cart
	Session   Session
	Admin     Admin
	Stripe    Stripe
	Paypal    Paypal
	Breaker   Breaker
	Kafka     Kafka
	RateLimit RateLimit
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:civic"`
	MaxIdleConns int    `conf:"default:3"`
	MaxOpenConns int    `conf:"default:2"`
	DisableTLS   bool   `conf:"default:true"`
}

type Redis struct {
	Address  string `conf:"default:localhost:6379"`
	Password string `conf:"mask"`
	DB       int    `conf:"default:0"`
}

// Cart selects the durable side-store the cart is mirrored to.
type Cart struct {
	Store string        `conf:"default:redis,help:redis postgres or memory"`
	TTL   time.Duration `conf:"default:720h"`
}

type Session struct {
	Lifetime   time.Duration `conf:"default:720h"`
	CookieName string        `conf:"default:civic_session"`
	Secure     bool          `conf:"default:false"`
}

type Admin struct {
	APIKey string `conf:"mask"`
}

type Stripe struct {
	APISecret        string        `conf:"mask"`
	WebhookSecret    string        `conf:"mask"`
	SuccessURL       string        `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL        string        `conf:"default:http://localhost:3000/cart"`
	Currency         string        `conf:"default:usd"`
	AccountID        string
	AccountStaleness time.Duration `conf:"default:5m"`
	URL              string        `conf:"help:override the stripe api base url"`
}

type Paypal struct {
	ClientID  string `conf:"mask"`
	Secret    string `conf:"mask"`
	URL       string `conf:"default:https://api-m.sandbox.paypal.com"`
	ReturnURL string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL string `conf:"default:http://localhost:3000/cart"`
	Currency  string `conf:"default:USD"`
}

// Breaker guards outbound payment calls.
type Breaker struct {
	MaxFailures uint32        `conf:"default:5"`
	Timeout     time.Duration `conf:"default:30s"`
}

type Kafka struct {
	Brokers []string
	Topic   string `conf:"default:orders"`
}

type RateLimit struct {
	Burst    int           `conf:"default:5"`
	Interval time.Duration `conf:"default:2s"`
	Expiry   int           `conf:"default:10,help:minutes before an idle client is forgotten"`
}
