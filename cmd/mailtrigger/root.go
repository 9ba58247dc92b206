package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// cli carries state shared by every command.
type cli struct {
	out     io.Writer
	open    func(ctx context.Context, envFile string) (*runtime, error)
	envFile string
	json    bool
}

func newCLI(out io.Writer) *cli {
	return &cli{out: out, open: openRuntime}
}

// run opens a runtime for the duration of fn.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	rt, err := c.open(ctx, c.envFile)
	if err != nil {
		return err
	}
	defer func() {
		if rt.close != nil {
			_ = rt.close()
		}
	}()
	return fn(ctx, rt)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "mailtrigger",
		Short: "Compose and send form letters",
		Long: `mailtrigger fills stored email templates with your details and the values you
supply, resolves the recipients and sends the result through the configured
mail provider.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)

	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "env file to load (default .env)")
	root.PersistentFlags().BoolVar(&c.json, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newMigrateCmd(c),
		newWorkerCmd(c),
		newTemplatesCmd(c),
		newRecipientsCmd(c),
		newPreviewCmd(c),
		newSendCmd(c),
		newHistoryCmd(c),
		newStatusCmd(c),
	)
	return root
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				if err := rt.migrate(ctx); err != nil {
					return err
				}
				return c.printf("Migrations applied\n")
			})
		},
	}
}

func newWorkerCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued email log writes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				return rt.work(ctx)
			})
		},
	}
}
