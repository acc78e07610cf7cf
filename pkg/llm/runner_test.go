package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyRunner struct {
	failures int
	calls    int
}

func (f *flakyRunner) RunModel(ctx context.Context, engineID, prompt string) (*Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient")
	}
	return &Response{Text: "ok"}, nil
}

func (f *flakyRunner) EngineInfo(engineID string) (*EngineInfo, error) {
	return &EngineInfo{Engine: engineID}, nil
}

func TestRetryRunner_RetriesWithUnchangedPrompt(t *testing.T) {
	inner := &flakyRunner{failures: 2}
	runner := NewRetryRunner(inner, time.Second, 2)

	resp, err := runner.RunModel(context.Background(), "e", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryRunner_ExhaustsRetries(t *testing.T) {
	inner := &flakyRunner{failures: 10}
	runner := NewRetryRunner(inner, time.Second, 2)

	_, err := runner.RunModel(context.Background(), "e", "prompt")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryRunner_UnknownEngineNotRetried(t *testing.T) {
	registry := NewRegistry()
	runner := NewRetryRunner(registry, time.Second, 2)

	_, err := runner.RunModel(context.Background(), "missing", "prompt")
	assert.ErrorIs(t, err, ErrUnknownEngine)
}

func TestRetryRunner_CancellationPropagates(t *testing.T) {
	inner := &flakyRunner{failures: 10}
	runner := NewRetryRunner(inner, time.Second, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunModel(ctx, "e", "prompt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inner.calls)
}

func TestRegistry_Dispatch(t *testing.T) {
	registry := NewRegistry()
	registry.Register("fast", &flakyRunner{})

	resp, err := registry.RunModel(context.Background(), "fast", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	info, err := registry.EngineInfo("fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", info.Engine)

	_, err = registry.EngineInfo("slow")
	assert.ErrorIs(t, err, ErrUnknownEngine)
}
