// Package config loads the mailtrigger settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/db"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/logger"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/filesender"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/gmail"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/postmark"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/resend"
)

var (
	ErrLoadEnvFile    = errors.New("config: failed to load env file")
	ErrParse          = errors.New("config: failed to parse environment")
	ErrMissingAccount = errors.New("config: MAILTRIGGER_ACCOUNT_ID, MAILTRIGGER_NAME and MAILTRIGGER_EMAIL are required")
	ErrInvalidEmail   = errors.New("config: MAILTRIGGER_EMAIL is not a valid address")
)

// Identity is the operator the CLI composes on behalf of.
type Identity struct {
	AccountID string `env:"MAILTRIGGER_ACCOUNT_ID"`
	Name      string `env:"MAILTRIGGER_NAME"`
	Email     string `env:"MAILTRIGGER_EMAIL"`
}

// Validate checks that every field is set and the email is well formed.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.AccountID) == "" || strings.TrimSpace(i.Name) == "" || strings.TrimSpace(i.Email) == "" {
		return ErrMissingAccount
	}
	if !compose.ValidAddress(i.Email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, i.Email)
	}
	return nil
}

// Compose converts i into the caller identity of a composition.
func (i Identity) Compose() compose.Identity {
	return compose.Identity{
		AccountID: strings.TrimSpace(i.AccountID),
		Name:      strings.TrimSpace(i.Name),
		Email:     strings.TrimSpace(i.Email),
	}
}

// Jobs configures the background worker.
type Jobs struct {
	Queue      string `env:"JOB_QUEUE" envDefault:"default"`
	MaxWorkers int    `env:"JOB_MAX_WORKERS" envDefault:"10"`
}

// Config is the complete application configuration.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	Logger   logger.Config
	Database db.Config
	Mailer   mailer.Config
	Resend   resend.Config
	Postmark postmark.Config
	Gmail    gmail.Config
	File     filesender.Config
	Jobs     Jobs
	Identity Identity
}

// Load reads the given env files (.env when none is named) and parses the
// environment into a Config. Missing env files are ignored; variables already
// set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Join(ErrLoadEnvFile, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrParse, err)
	}
	return cfg, nil
}
