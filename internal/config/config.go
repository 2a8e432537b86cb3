package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Payment processor
	StripeSecretKey     string        `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	Currency            string        `env:"CURRENCY" envDefault:"usd"`
	ProcessorTimeout    time.Duration `env:"PROCESSOR_TIMEOUT" envDefault:"10s"`

	// Notifications
	MailAPIURL      string `env:"MAIL_API_URL"`
	MailAPIKey      string `env:"MAIL_API_KEY"`
	MailFrom        string `env:"MAIL_FROM" envDefault:"billing@clubledger.io"`
	NotifyQueueSize int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"64"`

	// Invoicing
	InvoiceDueDays int `env:"INVOICE_DUE_DAYS" envDefault:"14"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
