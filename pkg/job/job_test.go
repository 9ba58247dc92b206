package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/logger"
)

type testPayload struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type testTask struct {
	name     string
	executed bool
	payload  testPayload
	err      error
}

func (t *testTask) Name() string { return t.name }

func (t *testTask) Handle(_ context.Context, p testPayload) error {
	t.executed = true
	t.payload = p
	return t.err
}

type mockAppender struct {
	mock.Mock
}

func (m *mockAppender) AppendLog(ctx context.Context, entry compose.LogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type mockInserter struct {
	mock.Mock
}

func (m *mockInserter) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	return m.Called(ctx, name, payload, len(opts)).Error(0)
}

func TestTaskRegistry(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithTask[testPayload](&testTask{name: "b"})(cfg)
	WithTask[testPayload](&testTask{name: "a"})(cfg)

	_, ok := cfg.registry.get("a")
	assert.True(t, ok)
	_, ok = cfg.registry.get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, cfg.registry.names())
}

func TestTaskWrapper_Execute(t *testing.T) {
	t.Parallel()

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()
		task := &testTask{name: "t"}
		raw, err := json.Marshal(testPayload{Message: "hello", Count: 42})
		require.NoError(t, err)

		require.NoError(t, (&taskWrapper[testPayload]{task: task}).Execute(context.Background(), raw))
		assert.True(t, task.executed)
		assert.Equal(t, testPayload{Message: "hello", Count: 42}, task.payload)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		task := &testTask{name: "t"}
		require.NoError(t, (&taskWrapper[testPayload]{task: task}).Execute(context.Background(), nil))
		assert.True(t, task.executed)
		assert.Zero(t, task.payload)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		task := &testTask{name: "t"}
		err := (&taskWrapper[testPayload]{task: task}).Execute(context.Background(), json.RawMessage(`{"count":"x"}`))
		require.ErrorIs(t, err, ErrInvalidPayload)
		assert.False(t, task.executed)
	})

	t.Run("handler error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		err := (&taskWrapper[testPayload]{task: &testTask{err: boom}}).Execute(context.Background(), nil)
		require.ErrorIs(t, err, boom)
	})
}

func TestTaskWorker_Run(t *testing.T) {
	t.Parallel()

	task := &testTask{name: "greet"}
	cfg := newConfig()
	WithTask[testPayload](task)(cfg)
	w := &taskWorker{registry: cfg.registry, logger: logger.NewNope()}

	require.NoError(t, w.run(context.Background(), taskArgs{TaskName: "greet", Payload: json.RawMessage(`{"message":"hi"}`)}, 1, 1))
	assert.Equal(t, "hi", task.payload.Message)

	err := w.run(context.Background(), taskArgs{TaskName: "nope"}, 2, 1)
	require.ErrorIs(t, err, ErrUnknownTask)
}

func TestBuildJobArgs(t *testing.T) {
	t.Parallel()

	args, opts, err := buildJobArgs("append_email_log", testPayload{Message: "m"},
		InQueue("logs"), MaxAttempts(5), Priority(2), Tags("email", "log"))
	require.NoError(t, err)

	assert.Equal(t, "append_email_log", args.TaskName)
	assert.Equal(t, "mailtrigger:task", args.Kind())
	assert.JSONEq(t, `{"message":"m","count":0}`, string(args.Payload))
	assert.Equal(t, "logs", opts.Queue)
	assert.Equal(t, 5, opts.MaxAttempts)
	assert.Equal(t, 2, opts.Priority)
	assert.Equal(t, []string{"email", "log"}, opts.Tags)

	args, opts, err = buildJobArgs("x", nil, InQueue(""), MaxAttempts(0))
	require.NoError(t, err)
	assert.Empty(t, args.Payload)
	assert.Empty(t, opts.Queue)
	assert.Zero(t, opts.MaxAttempts)

	_, _, err = buildJobArgs("x", make(chan int))
	require.Error(t, err)
}

func TestAppendEmailLog_Handle(t *testing.T) {
	t.Parallel()

	entry := compose.LogEntry{
		ID:      "log-1",
		OwnerID: "acc-1",
		To:      []string{"warden@college.edu"},
		Subject: "Leave",
		Status:  compose.StatusSent,
		SentAt:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	t.Run("stores entry", func(t *testing.T) {
		t.Parallel()
		logs := &mockAppender{}
		logs.On("AppendLog", mock.Anything, entry).Return(nil).Once()
		require.NoError(t, NewAppendEmailLog(logs).Handle(context.Background(), entry))
		logs.AssertExpectations(t)
	})

	t.Run("duplicate is success", func(t *testing.T) {
		t.Parallel()
		logs := &mockAppender{}
		logs.On("AppendLog", mock.Anything, entry).Return(fmt.Errorf("store: %w", ErrDuplicate)).Once()
		require.NoError(t, NewAppendEmailLog(logs).Handle(context.Background(), entry))
	})

	t.Run("store failure retries", func(t *testing.T) {
		t.Parallel()
		logs := &mockAppender{}
		logs.On("AppendLog", mock.Anything, entry).Return(errors.New("db down")).Once()
		require.Error(t, NewAppendEmailLog(logs).Handle(context.Background(), entry))
	})

	t.Run("rejects incomplete entry", func(t *testing.T) {
		t.Parallel()
		logs := &mockAppender{}
		err := NewAppendEmailLog(logs).Handle(context.Background(), compose.LogEntry{})
		require.ErrorIs(t, err, ErrInvalidPayload)
		logs.AssertNotCalled(t, "AppendLog")
	})

	t.Run("payload round trip through the queue", func(t *testing.T) {
		t.Parallel()
		logs := &mockAppender{}
		logs.On("AppendLog", mock.Anything, entry).Return(nil).Once()

		args, _, err := buildJobArgs(AppendEmailLogTask, entry)
		require.NoError(t, err)

		cfg := newConfig()
		WithTask[compose.LogEntry](NewAppendEmailLog(logs))(cfg)
		w := &taskWorker{registry: cfg.registry, logger: logger.NewNope()}
		require.NoError(t, w.run(context.Background(), *args, 1, 1))
		logs.AssertExpectations(t)
	})
}

func TestEmailLogQueue(t *testing.T) {
	t.Parallel()

	jobs := &mockInserter{}
	entry := compose.LogEntry{ID: "log-1", OwnerID: "acc-1"}
	jobs.On("Enqueue", mock.Anything, AppendEmailLogTask, entry, 1).Return(nil).Once()

	q := NewEmailLogQueue(jobs, MaxAttempts(10))
	require.NoError(t, q.AppendLog(context.Background(), entry))
	jobs.AssertExpectations(t)
}

func TestNewManager_RequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewManager(nil)
	require.ErrorIs(t, err, ErrPoolRequired)

	_, err = NewEnqueuer(nil, nil)
	require.ErrorIs(t, err, ErrPoolRequired)
}
