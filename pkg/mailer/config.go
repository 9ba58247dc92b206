package mailer

// Config holds mailer configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// Provider selects the Sender: resend, postmark, gmail or file.
	Provider string `env:"MAILER_PROVIDER" envDefault:"file"`
	// Layout is the layout file wrapping the HTML alternative.
	Layout string `env:"MAILER_LAYOUT" envDefault:"base.html"`
	// HTML enables the markdown-rendered HTML alternative.
	HTML bool `env:"MAILER_HTML" envDefault:"true"`
	// AsyncLog appends email logs through the job queue instead of inline.
	AsyncLog bool `env:"MAILER_ASYNC_LOG" envDefault:"false"`
}
