package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/job"
)

var created = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newMock(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return New(mock), mock
}

func templateRows() *pgxmock.Rows {
	return pgxmock.NewRows(templateColumns)
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrAlreadyExists},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrNotFound},
		{"check", &pgconn.PgError{Code: "23514"}, ErrInvalidInput},
		{"canceled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := mapError(tt.err, "template", "tpl-1")
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}

	other := errors.New("connection reset")
	require.ErrorIs(t, mapError(other, "template", "tpl-1"), other)
}

func TestListTemplates(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM templates WHERE (owner_id = $1 OR owner_id IS NULL) ORDER BY owner_id IS NULL, is_default DESC, name")).
		WithArgs("acc-1").
		WillReturnRows(templateRows().
			AddRow("tpl-1", ptr("acc-1"), "Leave", "leave", "Leave - {{date}}", "I, {{name}}, need {{reason}}.", []string{"date", "name", "reason"}, true, created).
			AddRow("tpl-2", (*string)(nil), "Notice", "announcement", "{{title}}", "Body {{text}}", []string{"stale"}, false, created))

	got, err := s.ListTemplates(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "acc-1", got[0].OwnerID)
	assert.Equal(t, compose.CategoryLeave, got[0].Category)
	assert.True(t, got[0].IsDefault)

	assert.Empty(t, got[1].OwnerID)
	assert.Equal(t, []string{"title", "text"}, got[1].Variables, "stored variables are re-derived from the text")
}

func TestGetTemplate(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE (id = $1 AND (owner_id = $2 OR owner_id IS NULL))")).
			WithArgs("tpl-1", "acc-1").
			WillReturnRows(templateRows().
				AddRow("tpl-1", ptr("acc-1"), "Leave", "leave", "S {{date}}", "B", []string{"date"}, false, created))

		got, err := s.GetTemplate(context.Background(), "acc-1", "tpl-1")
		require.NoError(t, err)
		assert.Equal(t, "Leave", got.Name)
		assert.Equal(t, created, got.CreatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.ExpectQuery("SELECT").WithArgs("tpl-9", "acc-1").WillReturnError(pgx.ErrNoRows)

		_, err := s.GetTemplate(context.Background(), "acc-1", "tpl-9")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()
		s, _ := newMock(t)
		_, err := s.GetTemplate(context.Background(), "acc-1", "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestDefaultTemplate(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM templates WHERE (owner_id = $1 OR owner_id IS NULL) AND is_default = $2 ORDER BY owner_id IS NULL LIMIT 1")).
		WithArgs("acc-1", true).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("tpl-1"))
	mock.ExpectQuery("SELECT id FROM templates").
		WithArgs("acc-2", true).
		WillReturnError(pgx.ErrNoRows)

	id, err := s.DefaultTemplate(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", id)

	_, err = s.DefaultTemplate(context.Background(), "acc-2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTemplate(t *testing.T) {
	t.Parallel()

	t.Run("default clears the others", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE templates SET is_default = $1 WHERE owner_id = $2 AND is_default = $3 AND id <> $4")).
			WithArgs(false, "acc-1", true, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectQuery("INSERT INTO templates").
			WithArgs(pgxmock.AnyArg(), ptr("acc-1"), "Leave", "leave", "Leave - {{date}}", "{{name}} needs {{reason}}", []string{"date", "name", "reason"}, true).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
		mock.ExpectCommit()

		tpl := &compose.Template{
			OwnerID:   "acc-1",
			Name:      "Leave",
			Category:  compose.CategoryLeave,
			Subject:   "Leave - {{date}}",
			Body:      "{{name}} needs {{reason}}",
			IsDefault: true,
		}
		require.NoError(t, s.CreateTemplate(context.Background(), tpl))
		assert.NotEmpty(t, tpl.ID)
		assert.Equal(t, created, tpl.CreatedAt)
	})

	t.Run("category defaults to other", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO templates").
			WithArgs("tpl-1", (*string)(nil), "Notice", "other", "Hi", "Plain", []string{}, false).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
		mock.ExpectCommit()

		tpl := &compose.Template{ID: "tpl-1", Name: "Notice", Subject: "Hi", Body: "Plain"}
		require.NoError(t, s.CreateTemplate(context.Background(), tpl))
		assert.Equal(t, compose.CategoryOther, tpl.Category)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		s, _ := newMock(t)
		err := s.CreateTemplate(context.Background(), &compose.Template{Name: "No body", Subject: "S"})
		require.ErrorIs(t, err, ErrInvalidInput)
		require.ErrorIs(t, err, compose.ErrInvalidTemplate)
	})

	t.Run("duplicate default rolls back", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE templates").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("INSERT INTO templates").WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		err := s.CreateTemplate(context.Background(), &compose.Template{
			OwnerID: "acc-1", Name: "A", Subject: "S", Body: "B", IsDefault: true,
		})
		require.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestUpdateTemplate(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE (id = $1 AND owner_id = $2) FOR UPDATE")).
		WithArgs("tpl-1", "acc-1").
		WillReturnRows(templateRows().
			AddRow("tpl-1", ptr("acc-1"), "Leave", "leave", "Leave - {{date}}", "Because {{reason}}", []string{"date", "reason"}, false, created))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE templates SET body = $1, category = $2, is_default = $3, name = $4, subject = $5, variables = $6 WHERE id = $7")).
		WithArgs("Back on {{to_date}}", "leave", false, "Leave", "Leave - {{date}}", []string{"date", "to_date"}, "tpl-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, err := s.UpdateTemplate(context.Background(), "acc-1", "tpl-1", TemplatePatch{Body: ptr("Back on {{to_date}}")})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "to_date"}, got.Variables)
}

func TestUpdateTemplate_NotOwned(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("tpl-g", "acc-1").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.UpdateTemplate(context.Background(), "acc-1", "tpl-g", TemplatePatch{Name: ptr("Mine now")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTemplate(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM templates WHERE id = $1 AND owner_id = $2")).
		WithArgs("tpl-1", "acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM templates").
		WithArgs("tpl-2", "acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteTemplate(context.Background(), "acc-1", "tpl-1"))
	require.ErrorIs(t, s.DeleteTemplate(context.Background(), "acc-1", "tpl-2"), ErrNotFound)
}

func TestSeed(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	catalog := []compose.Template{
		{Name: "Leave Application", Category: compose.CategoryLeave, Subject: "Leave", Body: "{{reason}}", IsDefault: true},
		{Name: "Complaint", Category: compose.CategoryComplaint, Subject: "Complaint", Body: "{{details}}"},
		{Name: "Announcement", Category: compose.CategoryAnnouncement, Subject: "{{title}}", Body: "Hi", IsDefault: true},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, is_default FROM templates WHERE owner_id = $1")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"name", "is_default"}).AddRow("leave application", false))
	mock.ExpectQuery("INSERT INTO templates").
		WithArgs(pgxmock.AnyArg(), ptr("acc-1"), "Complaint", "complaint", "Complaint", "{{details}}", []string{"details"}, false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery("INSERT INTO templates").
		WithArgs(pgxmock.AnyArg(), ptr("acc-1"), "Announcement", "announcement", "{{title}}", "Hi", []string{"title"}, true).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectCommit()

	n, err := s.Seed(context.Background(), "acc-1", catalog)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, catalog[1].ID, "the catalog itself is not modified")
}

func TestCreateRecipient(t *testing.T) {
	t.Parallel()

	t.Run("defaults to To", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO recipients").
			WithArgs(pgxmock.AnyArg(), ptr("acc-1"), "Warden", "warden@college.edu", "to", true).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

		r := &compose.Recipient{OwnerID: "acc-1", Name: " Warden ", Email: "warden@college.edu ", IsDefault: true}
		require.NoError(t, s.CreateRecipient(context.Background(), r))
		assert.Equal(t, compose.RoleTo, r.Role)
		assert.Equal(t, "Warden", r.Name)
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO recipients").WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.CreateRecipient(context.Background(), &compose.Recipient{OwnerID: "acc-1", Name: "W", Email: "WARDEN@college.edu"})
		require.ErrorIs(t, err, ErrAlreadyExists)
	})

	for name, r := range map[string]compose.Recipient{
		"no name":      {Email: "a@x.org"},
		"bad email":    {Name: "A", Email: "not-an-address"},
		"unknown role": {Name: "A", Email: "a@x.org", Role: "bcc"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s, _ := newMock(t)
			require.ErrorIs(t, s.CreateRecipient(context.Background(), &r), ErrInvalidInput)
		})
	}
}

func TestUpdateRecipient(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE recipients SET is_default = $1 WHERE id = $2 AND owner_id = $3 RETURNING")).
		WithArgs(true, "rcp-1", "acc-1").
		WillReturnRows(pgxmock.NewRows(recipientColumns).
			AddRow("rcp-1", ptr("acc-1"), "HOD", "hod@college.edu", "cc", true, created))

	got, err := s.UpdateRecipient(context.Background(), "acc-1", "rcp-1", RecipientPatch{IsDefault: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, compose.RoleCC, got.Role)
	assert.True(t, got.IsDefault)

	_, err = s.UpdateRecipient(context.Background(), "acc-1", "rcp-1", RecipientPatch{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDefaultRecipients(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ((owner_id = $1 OR owner_id IS NULL) AND is_default = $2)")).
		WithArgs("acc-1", true).
		WillReturnRows(pgxmock.NewRows(recipientColumns).
			AddRow("r1", ptr("acc-1"), "Warden", "warden@college.edu", "to", true, created).
			AddRow("r2", (*string)(nil), "HOD", "hod@college.edu", "cc", true, created))

	d, err := s.DefaultRecipients(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, []compose.Contact{{Name: "Warden", Email: "warden@college.edu"}}, d.To)
	assert.Equal(t, []compose.Contact{{Name: "HOD", Email: "hod@college.edu"}}, d.CC)
}

func TestDeleteRecipient(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipients WHERE id = $1 AND owner_id = $2")).
		WithArgs("rcp-1", "acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, s.DeleteRecipient(context.Background(), "acc-1", "rcp-1"), ErrNotFound)
}

func TestAppendLog(t *testing.T) {
	t.Parallel()

	entry := compose.LogEntry{
		ID:      "log-1",
		OwnerID: "acc-1",
		To:      []string{"warden@college.edu"},
		Subject: "Leave",
		Body:    "Body",
		Status:  compose.StatusFailed,
		Error:   "quota exceeded",
		SentAt:  created,
	}

	t.Run("stores nil cc as empty", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.ExpectExec("INSERT INTO email_logs").
			WithArgs("log-1", "acc-1", (*string)(nil), []string{"warden@college.edu"}, []string{}, "Leave", "Body",
				"failed", "", "quota exceeded", created).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, s.AppendLog(context.Background(), entry))
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.ExpectExec("INSERT INTO email_logs").WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.AppendLog(context.Background(), entry)
		require.ErrorIs(t, err, job.ErrDuplicate)
		require.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("no owner", func(t *testing.T) {
		t.Parallel()
		s, _ := newMock(t)
		e := entry
		e.OwnerID = ""
		require.ErrorIs(t, s.AppendLog(context.Background(), e), ErrInvalidInput)
	})
}

func TestListLogs(t *testing.T) {
	t.Parallel()
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM email_logs WHERE owner_id = $1 ORDER BY sent_at DESC, id LIMIT 100")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(logColumns).
			AddRow("log-2", "acc-1", ptr("tpl-1"), []string{"a@x.org"}, []string{}, "S", "B", "sent", "m-2", "", created.Add(time.Hour)).
			AddRow("log-1", "acc-1", (*string)(nil), []string{"a@x.org"}, []string{"b@x.org"}, "S", "B", "failed", "", "boom", created))

	logs, err := s.ListLogs(context.Background(), "acc-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, compose.StatusSent, logs[0].Status)
	assert.Equal(t, "tpl-1", *logs[0].TemplateID)
	assert.Nil(t, logs[1].TemplateID)
	assert.Equal(t, "boom", logs[1].Error)
}

func TestFetcher(t *testing.T) {
	t.Parallel()

	caller := compose.Identity{AccountID: "acc-1", Name: "Jane Doe", Email: "jane@college.edu"}

	t.Run("preview", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.MatchExpectationsInOrder(false)

		mock.ExpectQuery("FROM templates").
			WithArgs("tpl-1", "acc-1").
			WillReturnRows(templateRows().
				AddRow("tpl-1", ptr("acc-1"), "Leave", "leave", "Leave - {{date}}", "{{reason}}", []string{"date", "reason"}, true, created))
		mock.ExpectQuery("FROM recipients").
			WithArgs("acc-1", true).
			WillReturnRows(pgxmock.NewRows(recipientColumns).
				AddRow("r1", ptr("acc-1"), "Warden", "warden@college.edu", "to", true, created))

		p, err := NewFetcher(s).FetchPreview(context.Background(), caller, "tpl-1")
		require.NoError(t, err)
		assert.Equal(t, "Leave", p.TemplateName)
		assert.Equal(t, []compose.Contact{{Name: "Warden", Email: "warden@college.edu"}}, p.DefaultTo)
		assert.Empty(t, p.DefaultCC)
	})

	t.Run("no default", func(t *testing.T) {
		t.Parallel()
		s, mock := newMock(t)
		mock.ExpectQuery("SELECT id FROM templates").WillReturnError(pgx.ErrNoRows)

		_, err := NewFetcher(s).DefaultTemplate(context.Background(), caller)
		require.ErrorIs(t, err, compose.ErrTemplateNotFound)
	})

	t.Run("not found maps to missing template", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, notFound(mapError(pgx.ErrNoRows, "template", "tpl-9")), compose.ErrTemplateNotFound)
		boom := errors.New("connection refused")
		require.NotErrorIs(t, notFound(boom), compose.ErrTemplateNotFound)
	})
}
