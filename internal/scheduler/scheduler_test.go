package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pdf2text/internal/converter"
)

// MockConverter for testing
type MockConverter struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
	block chan struct{}
}

func (m *MockConverter) ConvertDir(ctx context.Context) ([]*converter.Result, error) {
	m.calls.Add(1)
	if m.ran != nil {
		select {
		case m.ran <- struct{}{}:
		default:
		}
	}
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	return []*converter.Result{{Input: "/in/a.pdf"}}, nil
}

func TestNewScheduler(t *testing.T) {
	config := &Config{CronSchedule: "0 0 9 * * *"}
	conv := &MockConverter{}

	sched := NewScheduler(conv, config, nil)
	require.NotNil(t, sched)
	assert.Same(t, config, sched.config)
	assert.Equal(t, conv, sched.converter)
	assert.NotNil(t, sched.logger)
}

func TestScheduler_Start(t *testing.T) {
	sched := NewScheduler(&MockConverter{}, &Config{CronSchedule: "@every 5m"}, nil)

	require.NoError(t, sched.Start())
	defer sched.Stop()

	status, err := sched.Status()
	require.NoError(t, err)
	assert.Equal(t, "@every 5m", status.Schedule)
}

func TestScheduler_StartInvalidSchedule(t *testing.T) {
	sched := NewScheduler(&MockConverter{}, &Config{CronSchedule: "every tuesday"}, nil)
	assert.Error(t, sched.Start())
}

func TestScheduler_RunsJob(t *testing.T) {
	conv := &MockConverter{ran: make(chan struct{}, 1)}
	sched := NewScheduler(conv, &Config{CronSchedule: "@every 1s"}, nil)

	require.NoError(t, sched.Start())
	defer sched.Stop()

	select {
	case <-conv.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job did not run")
	}
	assert.GreaterOrEqual(t, conv.calls.Load(), int32(1))
}

func TestScheduler_Status(t *testing.T) {
	sched := NewScheduler(&MockConverter{}, &Config{CronSchedule: "0 0 9 * * *"}, nil)

	// Test before starting
	_, err := sched.Status()
	assert.True(t, eris.Is(err, ErrNotScheduled))

	require.NoError(t, sched.Start())
	defer sched.Stop()

	// Test after starting
	status, err := sched.Status()
	require.NoError(t, err)
	assert.Equal(t, "0 0 9 * * *", status.Schedule)
	assert.Equal(t, 1, status.Jobs)
	assert.Equal(t, 9, status.Next.Hour())
	assert.True(t, status.Next.After(time.Now()))
	assert.True(t, status.Prev.IsZero())
}

func TestScheduler_RunOnStart(t *testing.T) {
	conv := &MockConverter{ran: make(chan struct{}, 1)}
	sched := NewScheduler(conv, &Config{CronSchedule: "0 0 9 * * *", RunOnStart: true}, nil)

	require.NoError(t, sched.Start())
	defer sched.Stop()

	select {
	case <-conv.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run at startup")
	}
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	conv := &MockConverter{ran: make(chan struct{}, 1), block: make(chan struct{})}
	sched := NewScheduler(conv, &Config{CronSchedule: "@every 1s", RunOnStart: true}, zap.New(core))

	require.NoError(t, sched.Start())

	select {
	case <-conv.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run at startup")
	}

	// The startup run is still blocked, so the next tick is skipped.
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("skip").Len() > 0
	}, 5*time.Second, 20*time.Millisecond)

	skips := logs.FilterMessage("skip").All()
	require.NotEmpty(t, skips)
	assert.Equal(t, zap.InfoLevel, skips[0].Level)
	assert.Equal(t, "cron", skips[0].LoggerName)
	assert.Equal(t, int32(1), conv.calls.Load())

	close(conv.block)
	sched.Stop()
}

func TestScheduler_JobErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	conv := &MockConverter{ran: make(chan struct{}, 1), err: errors.New("bad.pdf: not a pdf")}
	sched := NewScheduler(conv, &Config{CronSchedule: "0 0 9 * * *", RunOnStart: true}, zap.New(core))

	require.NoError(t, sched.Start())
	<-conv.ran
	sched.Stop()

	failed := logs.FilterMessage("Scheduled conversion finished with errors").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "bad.pdf: not a pdf", failed[0].ContextMap()["error"])
}
