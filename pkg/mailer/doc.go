// Package mailer delivers composed messages through an email provider.
//
// The package separates delivery (provider Senders) from presentation: the
// operator's plain-text body is always sent as the text part, and optionally
// also rendered to a sanitized HTML alternative wrapped in a layout.
//
// # Architecture
//
//   - Sender: interface implemented by the provider adapters in the resend,
//     postmark, gmail and filesender subpackages
//   - Renderer: markdown (goldmark) to HTML, sanitized with bluemonday and
//     wrapped in an html/template layout
//   - Mailer: implements compose.Transport on top of a Sender and records
//     every attempt through an optional LogWriter
//
// # Usage
//
//	sender := resend.New(resend.Config{
//		APIKey:      os.Getenv("RESEND_API_KEY"),
//		SenderEmail: "letters@college.edu",
//		SenderName:  "Mail Trigger",
//	})
//
//	m := mailer.New(sender, mailer.Config{Layout: "base.html", HTML: true},
//		mailer.WithLogWriter(store.EmailLogs()),
//		mailer.WithLogger(log),
//	)
//
//	s := compose.NewSession(caller, m)
//
// Send never returns an error. A failed delivery comes back as a SendResult
// with Success false and the provider's message, so the composition session
// can keep the operator's draft and offer a retry.
//
// # Logging sends
//
// The LogWriter sees one compose.LogEntry per attempt, with the provider
// message id on success and the error text on failure. A failing LogWriter is
// logged and otherwise ignored; pass a job enqueuer to make it asynchronous.
package mailer
