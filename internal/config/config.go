package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Checkout Checkout `envPrefix:"CHECKOUT_"`
	Paymob   Paymob   `envPrefix:"PAYMOB_"`
	Paypal   Paypal   `envPrefix:"PAYPAL_"`
	Admin    Admin    `envPrefix:"ADMIN_"`
}

type Checkout struct {
	// Flat delivery fee in piastres, added to every order total.
	ShippingFeeMinor int64 `env:"SHIPPING_FEE_MINOR" envDefault:"5000"`
	// Fixed EGP -> USD rate used when settling through PayPal.
	EGPToUSDRate string `env:"EGP_TO_USD_RATE" envDefault:"0.021"`
}

type Paymob struct {
	BaseApiURL          string `env:"BASE_API_URL" envDefault:"https://accept.paymob.com/api"`
	APIKey              string `env:"API_KEY"`
	CardIntegrationID   string `env:"CARD_INTEGRATION_ID"`
	WalletIntegrationID string `env:"WALLET_INTEGRATION_ID"`
	IframeID            string `env:"IFRAME_ID"`
	HMACSecret          string `env:"HMAC_SECRET"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Currency     string `env:"CURRENCY" envDefault:"USD"`
	ReturnURL    string `env:"RETURN_URL"`
	CancelURL    string `env:"CANCEL_URL"`
}

type Admin struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
