package config

// GatewayConfig holds credentials and endpoints for the external payment
// gateway (an SSLCommerz-style hosted checkout).  The callback base is the
// public URL of this service; the gateway POSTs success/fail/cancel
// notifications back to it.
type GatewayConfig struct {
	StoreID      string // merchant store identifier
	StorePass    string // merchant store password
	BaseURL      string // gateway API base URL (sandbox or live)
	CallbackBase string // public base URL of this service for callbacks
	Currency     string // currency every booking is charged in
}

// LoadGatewayConfig reads gateway settings.  Credentials are required; the
// URLs default to the sandbox gateway and a local callback base.
func LoadGatewayConfig() GatewayConfig {
	return GatewayConfig{
		StoreID:      must("GATEWAY_STORE_ID"),
		StorePass:    must("GATEWAY_STORE_PASS"),
		BaseURL:      getenv("GATEWAY_BASE_URL", "https://sandbox.sslcommerz.com"),
		CallbackBase: getenv("GATEWAY_CALLBACK_BASE", "http://localhost:8080"),
		Currency:     getenv("GATEWAY_CURRENCY", "BDT"),
	}
}
