package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// DB
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"spacebook"`

	// Redis (delayed job queue)
	RedisHost string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort string `envconfig:"REDIS_PORT" default:"6379"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Payment provider
	PayOSBaseURL     string `envconfig:"PAYOS_BASE_URL" default:"https://api-merchant.payos.vn"`
	PayOSClientID    string `envconfig:"PAYOS_CLIENT_ID" default:""`
	PayOSAPIKey      string `envconfig:"PAYOS_API_KEY" default:""`
	PayOSChecksumKey string `envconfig:"PAYOS_CHECKSUM_KEY" required:"true"`
	PaymentReturnURL string `envconfig:"PAYMENT_RETURN_URL" default:"http://localhost:3000/payment/return"`
	PaymentCancelURL string `envconfig:"PAYMENT_CANCEL_URL" default:"http://localhost:3000/payment/cancel"`

	// Lifecycle
	ReminderLeadMinutes int `envconfig:"REMINDER_LEAD_MINUTES" default:"10"`
	SchedulerWorkers    int `envconfig:"SCHEDULER_WORKERS" default:"2"`

	// Outbound event bridge (disabled when empty)
	RabbitURL      string `envconfig:"RABBIT_URL" default:""`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"spacebook.events"`

	// Tracing (disabled when empty)
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`

	// Fallback channels
	SMTPAddr      string `envconfig:"SMTP_ADDR" default:""`
	SMTPFrom      string `envconfig:"SMTP_FROM" default:"no-reply@spacebook.local"`
	SMTPUser      string `envconfig:"SMTP_USER" default:""`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD" default:""`
	SMSGatewayURL string `envconfig:"SMS_GATEWAY_URL" default:""`
	SMSAPIKey     string `envconfig:"SMS_API_KEY" default:""`
}

// Load reads .env when present, then the environment.
func Load() (App, error) {
	_ = godotenv.Load()
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
