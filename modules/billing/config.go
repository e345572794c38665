package billing

import "time"

// Config holds the billing module settings loaded from the environment.
// KeyID is publishable; KeySecret and WebhookSecret must never appear in
// logs or responses.
type Config struct {
	RazorpayKeyID         string        `env:"RAZORPAY_KEY_ID,required"`
	RazorpayKeySecret     string        `env:"RAZORPAY_KEY_SECRET,required"`
	RazorpayWebhookSecret string        `env:"RAZORPAY_WEBHOOK_SECRET,required"`
	RazorpayBaseURL       string        `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com/v1"`
	GatewayTimeout        time.Duration `env:"RAZORPAY_TIMEOUT" envDefault:"10s"`
	PlansPath             string        `env:"BILLING_PLANS_PATH"` // optional YAML catalog override
}
