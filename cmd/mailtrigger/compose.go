package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/logger"
)

var (
	errInvalidVar = errors.New("variables must be given as name=value")
	errPreview    = errors.New("preview does not send")
)

func errInvalidRole(s string) error {
	return fmt.Errorf("unknown recipient type %q: use to or cc", s)
}

// parseVars turns name=value pairs into bindings. Values may contain '='.
func parseVars(pairs []string) (compose.Bindings, error) {
	b := make(compose.Bindings, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidVar, p)
		}
		b[name] = value
	}
	return b, nil
}

// composeFlags are the edits shared by preview and send.
type composeFlags struct {
	template string
	custom   bool
	subject  string
	body     string
	to       []string
	cc       []string
	noCC     bool
	vars     []string
}

func (f *composeFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.template, "template", "t", "", "template id (default: your default template)")
	flags.BoolVar(&f.custom, "custom", false, "start from a blank message instead of a template")
	flags.StringVar(&f.subject, "subject", "", "replace the subject")
	flags.StringVar(&f.body, "body", "", "replace the body")
	flags.StringSliceVar(&f.to, "to", nil, "replace the To recipients (repeatable or comma separated)")
	flags.StringSliceVar(&f.cc, "cc", nil, "replace the CC recipients (repeatable or comma separated)")
	flags.BoolVar(&f.noCC, "no-cc", false, "send without CC recipients")
	flags.StringArrayVarP(&f.vars, "var", "v", nil, "fill a variable, as name=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("template", "custom")
	cmd.MarkFlagsMutuallyExclusive("cc", "no-cc")
}

func (f *composeFlags) request(cmd *cobra.Command) (compose.Request, error) {
	vars, err := parseVars(f.vars)
	if err != nil {
		return compose.Request{}, err
	}
	req := compose.Request{
		TemplateID: f.template,
		Subject:    f.subject,
		Body:       f.body,
		Variables:  vars,
	}
	if cmd.Flags().Changed("to") {
		req.Overrides.To = compose.Replace(f.to...)
	}
	switch {
	case f.noCC:
		req.Overrides.CC = compose.Replace()
	case cmd.Flags().Changed("cc"):
		req.Overrides.CC = compose.Replace(f.cc...)
	}
	return req, nil
}

// session loads the composition the flags describe.
func (f *composeFlags) session(ctx context.Context, cmd *cobra.Command, rt *runtime, t compose.Transport) (*compose.Session, error) {
	req, err := f.request(cmd)
	if err != nil {
		return nil, err
	}
	caller, err := rt.caller()
	if err != nil {
		return nil, err
	}

	s := compose.NewSession(caller, t, compose.WithLogger(rt.logger))
	if f.custom {
		err = s.Start()
	} else {
		err = compose.Load(ctx, rt.fetcher, s, f.template)
	}
	if err != nil {
		return nil, err
	}
	if err := compose.Apply(s, req); err != nil {
		return nil, err
	}
	return s, nil
}

func newPreviewCmd(c *cli) *cobra.Command {
	f := &composeFlags{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the message that send would deliver",
		Example: `  mailtrigger preview --template 3f2a... --var reason="family function" --var from_date=2024-05-02
  mailtrigger preview --custom --subject "Hello" --body "Hi, {{name}} here" --to dean@college.edu`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				noSend := compose.TransportFunc(func(context.Context, compose.Message) compose.SendResult {
					return compose.SendResult{Message: errPreview.Error()}
				})
				s, err := f.session(ctx, cmd, rt, noSend)
				if err != nil {
					return err
				}
				draft, err := s.Preview()
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(draft)
				}
				if err := c.printDraft(s.TemplateName(), draft); err != nil {
					return err
				}
				if err := s.Validate(); err != nil {
					return c.printf("\nNot ready to send: %v\n", err)
				}
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newSendCmd(c *cli) *cobra.Command {
	f := &composeFlags{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Compose a message and send it",
		Example: `  mailtrigger send --var reason="medical appointment" --var from_date=2024-05-02 --var to_date=2024-05-03
  mailtrigger send --template 3f2a... --to warden@college.edu --no-cc --var reason=exams`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				t, err := rt.transport(ctx)
				if err != nil {
					return err
				}
				s, err := f.session(ctx, cmd, rt, t)
				if err != nil {
					return err
				}

				ctx = logger.WithCompositionID(logger.WithAccountID(ctx, rt.identity.AccountID), s.ID())
				res, err := s.Send(ctx)
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(res)
				}
				return c.printf("%s (message id: %s)\n", res.Message, orDash(res.MessageID))
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) printDraft(name string, d compose.Draft) error {
	if name == "" {
		name = "custom message"
	}
	return c.printf("Template: %s\nTo:       %s\nCC:       %s\nSubject:  %s\n\n%s\n",
		name,
		orDash(strings.Join(d.To, ", ")),
		orDash(strings.Join(d.CC, ", ")),
		d.Subject,
		d.Body,
	)
}

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your latest send attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(false)
				if err != nil {
					return err
				}
				logs, err := rt.store.ListLogs(ctx, owner, limit)
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(logs)
				}

				rows := make([][]string, 0, len(logs))
				for _, e := range logs {
					detail := e.MessageID
					if e.Status == compose.StatusFailed {
						detail = e.Error
					}
					rows = append(rows, []string{
						e.SentAt.Local().Format("2006-01-02 15:04"),
						string(e.Status),
						strings.Join(e.To, ", "),
						e.Subject,
						orDash(detail),
					})
				}
				return c.writeTable([]string{"SENT", "STATUS", "TO", "SUBJECT", "DETAIL"}, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "number of entries to show")
	return cmd
}
