package resend

import "errors"

// ErrMissingConfig is returned by Config.Validate.
var ErrMissingConfig = errors.New("resend: RESEND_API_KEY and RESEND_FROM_EMAIL are required")

// Config holds Resend provider configuration, parsed from env with caarlos0/env.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL"`
	SenderName  string `env:"RESEND_FROM_NAME"`
}

// Validate reports whether the provider can be used.
func (c Config) Validate() error {
	if c.APIKey == "" || c.SenderEmail == "" {
		return ErrMissingConfig
	}
	return nil
}
