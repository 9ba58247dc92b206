package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/db"
)

var templateColumns = []string{
	"id", "owner_id", "name", "category", "subject", "body", "variables", "is_default", "created_at",
}

// TemplatePatch lists the fields to change; nil fields are left alone.
type TemplatePatch struct {
	Name      *string
	Category  *compose.Category
	Subject   *string
	Body      *string
	IsDefault *bool
}

func (p TemplatePatch) apply(t *compose.Template) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Body != nil {
		t.Body = *p.Body
	}
	if p.IsDefault != nil {
		t.IsDefault = *p.IsDefault
	}
}

func scanTemplate(row pgx.Row) (compose.Template, error) {
	var (
		t        compose.Template
		ownerID  *string
		category string
	)
	err := row.Scan(&t.ID, &ownerID, &t.Name, &category, &t.Subject, &t.Body, &t.Variables, &t.IsDefault, &t.CreatedAt)
	if err != nil {
		return compose.Template{}, err
	}
	t.OwnerID = deref(ownerID)
	t.Category = compose.Category(category)
	return t, nil
}

// ListTemplates returns the account's templates followed by the global ones.
func (s *Store) ListTemplates(ctx context.Context, ownerID string) ([]compose.Template, error) {
	query, args, err := psql.Select(templateColumns...).
		From("templates").
		Where(visibleTo(ownerID)).
		OrderBy("owner_id IS NULL", "is_default DESC", "name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list templates query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	templates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (compose.Template, error) {
		return scanTemplate(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	for i := range templates {
		s.refresh(ctx, &templates[i])
	}
	return templates, nil
}

// GetTemplate returns a template the account can see.
func (s *Store) GetTemplate(ctx context.Context, ownerID, id string) (*compose.Template, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: template id is required", ErrInvalidInput)
	}
	t, err := getTemplate(ctx, s.db, squirrel.And{squirrel.Eq{"id": id}, visibleTo(ownerID)}, "")
	if err != nil {
		return nil, mapError(err, "template", id)
	}
	s.refresh(ctx, t)
	return t, nil
}

// DefaultTemplate returns the id of the account's default template, falling
// back to the global default.
func (s *Store) DefaultTemplate(ctx context.Context, ownerID string) (string, error) {
	query, args, err := psql.Select("id").
		From("templates").
		Where(visibleTo(ownerID)).
		Where(squirrel.Eq{"is_default": true}).
		OrderBy("owner_id IS NULL").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build default template query: %w", err)
	}

	var id string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", mapError(err, "default template of", ownerID)
	}
	return id, nil
}

// CreateTemplate stores t, deriving its variables from the text. Flagging it
// as default clears the flag on the owner's other templates.
func (s *Store) CreateTemplate(ctx context.Context, t *compose.Template) error {
	if t == nil {
		return fmt.Errorf("%w: template is required", ErrInvalidInput)
	}
	if t.Category == "" {
		t.Category = compose.CategoryOther
	}
	t.Refresh()
	if err := t.Validate(); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	return db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if t.IsDefault {
			if err := clearDefault(ctx, tx, t.OwnerID, t.ID); err != nil {
				return err
			}
		}
		return insertTemplate(ctx, tx, t)
	})
}

// UpdateTemplate applies patch to one of the account's own templates and
// re-derives its variables.
func (s *Store) UpdateTemplate(ctx context.Context, ownerID, id string, patch TemplatePatch) (*compose.Template, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: template id is required", ErrInvalidInput)
	}

	var updated *compose.Template
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		t, err := getTemplate(ctx, tx, squirrel.And{squirrel.Eq{"id": id}, ownedBy(ownerID)}, "FOR UPDATE")
		if err != nil {
			return mapError(err, "template", id)
		}

		patch.apply(t)
		t.Refresh()
		if err := t.Validate(); err != nil {
			return errors.Join(ErrInvalidInput, err)
		}

		if t.IsDefault {
			if err := clearDefault(ctx, tx, ownerID, id); err != nil {
				return err
			}
		}

		query, args, err := psql.Update("templates").
			SetMap(map[string]any{
				"name":       t.Name,
				"category":   string(t.Category),
				"subject":    t.Subject,
				"body":       t.Body,
				"variables":  t.Variables,
				"is_default": t.IsDefault,
			}).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update template query: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return mapError(err, "template", id)
		}

		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTemplate removes one of the account's own templates. Log entries
// that referenced it keep their content and lose the link.
func (s *Store) DeleteTemplate(ctx context.Context, ownerID, id string) error {
	query, args, err := psql.Delete("templates").
		Where(squirrel.Eq{"id": id}).
		Where(ownedBy(ownerID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete template query: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "template", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}

// Seed installs the given templates for the account, skipping names it
// already has. A default flag is kept only when the account has no default yet.
// It returns how many templates were inserted.
func (s *Store) Seed(ctx context.Context, ownerID string, templates []compose.Template) (int, error) {
	inserted := 0
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		query, args, err := psql.Select("name", "is_default").
			From("templates").
			Where(ownedBy(ownerID)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build seed query: %w", err)
		}

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}

		var (
			name       string
			isDefault  bool
			hasDefault bool
		)
		existing := make(map[string]struct{})
		_, err = pgx.ForEachRow(rows, []any{&name, &isDefault}, func() error {
			existing[strings.ToLower(name)] = struct{}{}
			hasDefault = hasDefault || isDefault
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}

		for _, t := range templates {
			key := strings.ToLower(t.Name)
			if _, ok := existing[key]; ok {
				continue
			}
			t.ID = uuid.NewString()
			t.OwnerID = ownerID
			t.IsDefault = t.IsDefault && !hasDefault
			t.Refresh()
			if err := t.Validate(); err != nil {
				return errors.Join(ErrInvalidInput, err)
			}
			if err := insertTemplate(ctx, tx, &t); err != nil {
				return err
			}
			existing[key] = struct{}{}
			hasDefault = hasDefault || t.IsDefault
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func getTemplate(ctx context.Context, q Querier, where squirrel.Sqlizer, suffix string) (*compose.Template, error) {
	b := psql.Select(templateColumns...).From("templates").Where(where)
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get template query: %w", err)
	}

	t, err := scanTemplate(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func insertTemplate(ctx context.Context, q Querier, t *compose.Template) error {
	query, args, err := psql.Insert("templates").
		Columns("id", "owner_id", "name", "category", "subject", "body", "variables", "is_default").
		Values(t.ID, owner(t.OwnerID), t.Name, string(t.Category), t.Subject, t.Body, t.Variables, t.IsDefault).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert template query: %w", err)
	}
	if err := q.QueryRow(ctx, query, args...).Scan(&t.CreatedAt); err != nil {
		return mapError(err, "template", t.ID)
	}
	return nil
}

func clearDefault(ctx context.Context, q Querier, ownerID, exceptID string) error {
	query, args, err := psql.Update("templates").
		Set("is_default", false).
		Where(ownedBy(ownerID)).
		Where(squirrel.Eq{"is_default": true}).
		Where(squirrel.NotEq{"id": exceptID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear default query: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear default template: %w", err)
	}
	return nil
}

// refresh repairs variables stored by an older scanner.
func (s *Store) refresh(ctx context.Context, t *compose.Template) {
	if !t.Stale() {
		return
	}
	s.logger.WarnContext(ctx, "template variables out of date",
		slog.String("template_id", t.ID),
		slog.String("stored", strings.Join(t.Variables, ",")),
	)
	t.Refresh()
}
