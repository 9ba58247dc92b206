package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
)

var recipientColumns = []string{"id", "owner_id", "name", "email", "type", "is_default", "created_at"}

// RecipientPatch lists the fields to change; nil fields are left alone.
type RecipientPatch struct {
	Name      *string
	Email     *string
	Role      *compose.Role
	IsDefault *bool
}

func scanRecipient(row pgx.Row) (compose.Recipient, error) {
	var (
		r       compose.Recipient
		ownerID *string
		role    string
	)
	if err := row.Scan(&r.ID, &ownerID, &r.Name, &r.Email, &role, &r.IsDefault, &r.CreatedAt); err != nil {
		return compose.Recipient{}, err
	}
	r.OwnerID = deref(ownerID)
	r.Role = compose.Role(role)
	return r, nil
}

func validateRecipient(r *compose.Recipient) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Role == "" {
		r.Role = compose.RoleTo
	}
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: recipient name is required", ErrInvalidInput)
	case !compose.ValidAddress(r.Email):
		return fmt.Errorf("%w: %q is not a valid email address", ErrInvalidInput, r.Email)
	case !r.Role.Valid():
		return fmt.Errorf("%w: unknown recipient type %q", ErrInvalidInput, r.Role)
	}
	return nil
}

// ListRecipients returns the account's address book followed by global entries.
func (s *Store) ListRecipients(ctx context.Context, ownerID string) ([]compose.Recipient, error) {
	return s.listRecipients(ctx, visibleTo(ownerID))
}

// DefaultRecipients returns the default To and CC contacts visible to the account.
func (s *Store) DefaultRecipients(ctx context.Context, ownerID string) (compose.Defaults, error) {
	recipients, err := s.listRecipients(ctx, squirrel.And{visibleTo(ownerID), squirrel.Eq{"is_default": true}})
	if err != nil {
		return compose.Defaults{}, err
	}
	return compose.DefaultsFrom(recipients), nil
}

func (s *Store) listRecipients(ctx context.Context, where squirrel.Sqlizer) ([]compose.Recipient, error) {
	query, args, err := psql.Select(recipientColumns...).
		From("recipients").
		Where(where).
		OrderBy("owner_id IS NULL", "type DESC", "name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list recipients query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	recipients, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (compose.Recipient, error) {
		return scanRecipient(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return recipients, nil
}

// CreateRecipient adds r to the address book. The same address may appear
// once per owner and role, compared case-insensitively.
func (s *Store) CreateRecipient(ctx context.Context, r *compose.Recipient) error {
	if r == nil {
		return fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if err := validateRecipient(r); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	query, args, err := psql.Insert("recipients").
		Columns("id", "owner_id", "name", "email", "type", "is_default").
		Values(r.ID, owner(r.OwnerID), r.Name, r.Email, string(r.Role), r.IsDefault).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert recipient query: %w", err)
	}
	if err := s.db.QueryRow(ctx, query, args...).Scan(&r.CreatedAt); err != nil {
		return mapError(err, "recipient", r.Email)
	}
	return nil
}

// UpdateRecipient applies patch to one of the account's own recipients.
func (s *Store) UpdateRecipient(ctx context.Context, ownerID, id string, patch RecipientPatch) (*compose.Recipient, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: recipient id is required", ErrInvalidInput)
	}

	set := make(map[string]any)
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: recipient name is required", ErrInvalidInput)
		}
		set["name"] = name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if !compose.ValidAddress(email) {
			return nil, fmt.Errorf("%w: %q is not a valid email address", ErrInvalidInput, email)
		}
		set["email"] = email
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown recipient type %q", ErrInvalidInput, *patch.Role)
		}
		set["type"] = string(*patch.Role)
	}
	if patch.IsDefault != nil {
		set["is_default"] = *patch.IsDefault
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	query, args, err := psql.Update("recipients").
		SetMap(set).
		Where(squirrel.Eq{"id": id}).
		Where(ownedBy(ownerID)).
		Suffix("RETURNING " + strings.Join(recipientColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update recipient query: %w", err)
	}

	r, err := scanRecipient(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "recipient", id)
	}
	return &r, nil
}

// DeleteRecipient removes one of the account's own recipients.
func (s *Store) DeleteRecipient(ctx context.Context, ownerID, id string) error {
	query, args, err := psql.Delete("recipients").
		Where(squirrel.Eq{"id": id}).
		Where(ownedBy(ownerID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete recipient query: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "recipient", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recipient %s: %w", id, ErrNotFound)
	}
	return nil
}
