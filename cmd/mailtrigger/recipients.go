package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/store"
)

func newRecipientsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipients",
		Aliases: []string{"recipient", "rcpt"},
		Short:   "Manage the address book",
	}
	cmd.AddCommand(
		newRecipientsListCmd(c),
		newRecipientsAddCmd(c),
		newRecipientsUpdateCmd(c),
		newRecipientsDeleteCmd(c),
	)
	return cmd
}

func parseRole(s string) (compose.Role, error) {
	r := compose.Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errInvalidRole(s)
	}
	return r, nil
}

func newRecipientsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your recipients and the global ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(false)
				if err != nil {
					return err
				}
				list, err := rt.store.ListRecipients(ctx, owner)
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(list)
				}

				rows := make([][]string, 0, len(list))
				for _, r := range list {
					rows = append(rows, []string{
						r.ID, r.Name, r.Email, strings.ToUpper(string(r.Role)), yesNo(r.IsDefault), scope(r.OwnerID),
					})
				}
				return c.writeTable([]string{"ID", "NAME", "EMAIL", "TYPE", "DEFAULT", "SCOPE"}, rows)
			})
		},
	}
}

func newRecipientsAddCmd(c *cli) *cobra.Command {
	var (
		r      compose.Recipient
		role   string
		global bool
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a recipient",
		Example: `  mailtrigger recipients add --name Warden --email warden@college.edu --default`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parseRole(role)
			if err != nil {
				return err
			}
			r.Role = parsed
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(global)
				if err != nil {
					return err
				}
				r.OwnerID = owner
				if err := rt.store.CreateRecipient(ctx, &r); err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(r)
				}
				return c.printf("Recipient %s added as %s (ID: %s)\n", r.Email, strings.ToUpper(string(r.Role)), r.ID)
			})
		},
	}
	cmd.Flags().StringVar(&r.Name, "name", "", "display name")
	cmd.Flags().StringVar(&r.Email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "type", string(compose.RoleTo), "to or cc")
	cmd.Flags().BoolVar(&r.IsDefault, "default", false, "include in every new composition")
	cmd.Flags().BoolVar(&global, "global", false, "add a global recipient visible to every account")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRecipientsUpdateCmd(c *cli) *cobra.Command {
	var (
		name, email, role string
		isDefault, global bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch store.RecipientPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("type") {
				r, err := parseRole(role)
				if err != nil {
					return err
				}
				patch.Role = &r
			}
			if flags.Changed("default") {
				patch.IsDefault = &isDefault
			}

			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(global)
				if err != nil {
					return err
				}
				r, err := rt.store.UpdateRecipient(ctx, owner, args[0], patch)
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(r)
				}
				return c.printf("Recipient %s updated\n", r.Email)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "type", "", "to or cc")
	cmd.Flags().BoolVar(&isDefault, "default", false, "include in every new composition")
	cmd.Flags().BoolVar(&global, "global", false, "update a global recipient")
	return cmd
}

func newRecipientsDeleteCmd(c *cli) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(global)
				if err != nil {
					return err
				}
				if err := rt.store.DeleteRecipient(ctx, owner, args[0]); err != nil {
					return err
				}
				return c.printf("Recipient %s deleted\n", args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "delete a global recipient")
	return cmd
}
