// Package compose turns a form-letter template, a set of recipients and a few
// fill-in values into a message ready for the mail transport.
//
// # Placeholders
//
// Template text marks substitution points with {{name}}. Whitespace inside the
// braces is ignored and names are case-sensitive letters, digits and underscores.
// Anything else that looks like a placeholder (unbalanced, empty, nested braces,
// names with spaces) is plain text: it is never reported and never replaced.
// Matching is leftmost first, so a stray {{ in prose does not hide a
// well-formed placeholder after it:
//
//	compose.Scan("set {{ aside for {{reason}}") // [reason]
//
//	compose.ScanTemplate("Leave - {{date}}", "I, {{name}}, request leave on {{date}} for {{reason}}.")
//	// [date name reason]
//
// # Variables
//
// The names name, email and date are reserved and filled in by the system from
// the caller's identity and the current date (YYYY-MM-DD). Every other name must
// be supplied by the operator before the message can be sent:
//
//	c := compose.Classify([]string{"date", "name", "reason"})
//	// c.AutoFill == [name date], c.UserFill == [reason]
//
// # Recipients
//
// Each role (To, CC) starts from the template's default recipients unless the
// operator supplies a list. Keep and Replace make the difference between "no
// list given" and "an empty list given" explicit:
//
//	r := compose.ResolveRecipients(defaults, compose.Overrides{
//		To: compose.Keep(),    // template defaults
//		CC: compose.Replace(), // no CC at all
//	})
//
// # Sessions
//
// A Session walks one composition through Idle, TemplateSelected,
// VariablesBound, Previewed and finally Sent or Failed:
//
//	s := compose.NewSession(caller, transport)
//	if err := compose.Load(ctx, fetcher, s, templateID); err != nil {
//		return err
//	}
//	_ = s.Bind("reason", "personal travel")
//	draft, _ := s.Preview()
//	res, err := s.Send(ctx)
//
// Send refuses with a *ValidationError when To, subject or body is empty, an
// address is malformed or a user-fill variable is unbound. A transport failure
// returns a *TransportError carrying the transport's message verbatim and leaves
// the session in Failed with all fields intact, ready to be sent again.
package compose
