package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/store"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/templates"
)

func newTemplatesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage email templates",
	}
	cmd.AddCommand(
		newTemplatesListCmd(c),
		newTemplatesShowCmd(c),
		newTemplatesAddCmd(c),
		newTemplatesUpdateCmd(c),
		newTemplatesDeleteCmd(c),
		newTemplatesSeedCmd(c),
	)
	return cmd
}

func newTemplatesListCmd(c *cli) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your templates and the global ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(global)
				if err != nil {
					return err
				}
				list, err := rt.store.ListTemplates(ctx, owner)
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(list)
				}

				rows := make([][]string, 0, len(list))
				for _, t := range list {
					rows = append(rows, []string{
						t.ID, t.Name, string(t.Category), yesNo(t.IsDefault), scope(t.OwnerID),
						orDash(strings.Join(t.Variables, ", ")),
					})
				}
				return c.writeTable([]string{"ID", "NAME", "CATEGORY", "DEFAULT", "SCOPE", "VARIABLES"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "list only global templates")
	return cmd
}

func newTemplatesShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template and the values it needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(false)
				if err != nil {
					return err
				}
				t, err := rt.store.GetTemplate(ctx, owner, args[0])
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(t)
				}

				classes := compose.Classify(t.Variables)
				return c.printf("Name:      %s (%s)\nSubject:   %s\nAuto-fill: %s\nYou fill:  %s\n\n%s\n",
					t.Name, t.Category, t.Subject,
					orDash(strings.Join(classes.AutoFill, ", ")),
					orDash(strings.Join(classes.UserFill, ", ")),
					t.Body,
				)
			})
		},
	}
}

type templateFlags struct {
	name      string
	category  string
	subject   string
	body      string
	file      string
	isDefault bool
	global    bool
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "template name")
	cmd.Flags().StringVar(&f.category, "category", "", "leave, complaint, request, announcement or other")
	cmd.Flags().StringVar(&f.subject, "subject", "", "subject line; may contain {{placeholders}}")
	cmd.Flags().StringVar(&f.body, "body", "", "body text; may contain {{placeholders}}")
	cmd.Flags().BoolVar(&f.isDefault, "default", false, "make this the default template")
}

// template builds the new template from --file (a markdown document with
// frontmatter) and the flags, flags taking precedence.
func (f *templateFlags) template(cmd *cobra.Command) (compose.Template, error) {
	var t compose.Template
	if f.file != "" {
		content, err := os.ReadFile(f.file)
		if err != nil {
			return compose.Template{}, err
		}
		if t, err = templates.Parse(filepath.Base(f.file), content); err != nil {
			return compose.Template{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		t.Name = f.name
	}
	if flags.Changed("category") {
		c, err := compose.ParseCategory(f.category)
		if err != nil {
			return compose.Template{}, err
		}
		t.Category = c
	}
	if flags.Changed("subject") {
		t.Subject = f.subject
	}
	if flags.Changed("body") {
		t.Body = f.body
	}
	if flags.Changed("default") {
		t.IsDefault = f.isDefault
	}
	return t, nil
}

func newTemplatesAddCmd(c *cli) *cobra.Command {
	f := &templateFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template",
		Example: `  mailtrigger templates add --name "Leave" --category leave \
    --subject "Leave - {{date}}" --body "I, {{name}}, request leave for {{reason}}."
  mailtrigger templates add --file leave.md --default`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := f.template(cmd)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(f.global)
				if err != nil {
					return err
				}
				t.OwnerID = owner
				if err := rt.store.CreateTemplate(ctx, &t); err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(t)
				}
				return c.printf("Template %q created (ID: %s)\n", t.Name, t.ID)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.file, "file", "", "markdown file with name, category, subject and default in its frontmatter")
	cmd.Flags().BoolVar(&f.global, "global", false, "create a global template visible to every account")
	return cmd
}

func newTemplatesUpdateCmd(c *cli) *cobra.Command {
	f := &templateFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := f.patch(cmd)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(f.global)
				if err != nil {
					return err
				}
				t, err := rt.store.UpdateTemplate(ctx, owner, args[0], patch)
				if err != nil {
					return err
				}
				if c.json {
					return c.writeJSON(t)
				}
				return c.printf("Template %q updated; variables: %s\n", t.Name, orDash(strings.Join(t.Variables, ", ")))
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.global, "global", false, "update a global template")
	return cmd
}

func (f *templateFlags) patch(cmd *cobra.Command) (store.TemplatePatch, error) {
	var p store.TemplatePatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = &f.name
	}
	if flags.Changed("category") {
		c, err := compose.ParseCategory(f.category)
		if err != nil {
			return p, err
		}
		p.Category = &c
	}
	if flags.Changed("subject") {
		p.Subject = &f.subject
	}
	if flags.Changed("body") {
		p.Body = &f.body
	}
	if flags.Changed("default") {
		p.IsDefault = &f.isDefault
	}
	return p, nil
}

func newTemplatesDeleteCmd(c *cli) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template; its send history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(global)
				if err != nil {
					return err
				}
				if err := rt.store.DeleteTemplate(ctx, owner, args[0]); err != nil {
					return err
				}
				return c.printf("Template %s deleted\n", args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "delete a global template")
	return cmd
}

func newTemplatesSeedCmd(c *cli) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Install the built-in form letters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := templates.Builtin()
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := rt.owner(global)
				if err != nil {
					return err
				}
				n, err := rt.store.Seed(ctx, owner, catalog)
				if err != nil {
					return err
				}
				return c.printf("Installed %d of %d built-in templates\n", n, len(catalog))
			})
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "install them as global templates")
	return cmd
}

