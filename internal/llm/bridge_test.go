package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// feedTokens returns a predict func that offers toks in order and stops
// early when the callback says so.
func feedTokens(toks []string, err error, stopped *atomic.Bool, returned *atomic.Int32) func(func(string) bool) error {
	return func(cb func(string) bool) error {
		for _, tok := range toks {
			ok := cb(tok)
			returned.Add(1)
			if !ok {
				stopped.Store(true)
				return nil
			}
		}
		return err
	}
}

func drainSteps(t *testing.T, b *predictBridge) ([]string, error) {
	t.Helper()
	var out []string
	for {
		tok, fb, err := b.Step(context.Background())
		if err != nil || fb == Stop {
			return out, err
		}
		require.Equal(t, InferredToken, tok.Kind)
		out = append(out, tok.Text)
	}
}

func TestPredictBridge_TokensInOrderThenStop(t *testing.T) {
	var stopped atomic.Bool
	var returned atomic.Int32
	b := newPredictBridge()
	require.NoError(t, b.start(feedTokens([]string{" blue", " and", " clear"}, nil, &stopped, &returned)))
	out, err := drainSteps(t, b)
	require.NoError(t, err)
	require.Equal(t, []string{" blue", " and", " clear"}, out)
	require.NoError(t, b.Close())
	require.False(t, stopped.Load())
	require.EqualValues(t, 3, returned.Load())
}

func TestPredictBridge_PredictErrorEndsSteps(t *testing.T) {
	var stopped atomic.Bool
	var returned atomic.Int32
	boom := errors.New("decode failed")
	b := newPredictBridge()
	require.NoError(t, b.start(feedTokens([]string{"a"}, boom, &stopped, &returned)))
	out, err := drainSteps(t, b)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"a"}, out)
	require.NoError(t, b.Close())
}

// The callback for a handed-over token waits for the next Step, so predict
// never runs ahead of the consumer.
func TestPredictBridge_CallbackWaitsForNextStep(t *testing.T) {
	var stopped atomic.Bool
	var returned atomic.Int32
	b := newPredictBridge()
	require.NoError(t, b.start(feedTokens([]string{"a", "b", "c"}, nil, &stopped, &returned)))

	tok, fb, err := b.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, Continue, fb)
	require.Equal(t, "a", tok.Text)
	require.EqualValues(t, 0, returned.Load())

	tok, _, err = b.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", tok.Text)
	require.EqualValues(t, 1, returned.Load())
	require.NoError(t, b.Close())
}

func TestPredictBridge_CloseStopsPredictAndWaits(t *testing.T) {
	var stopped atomic.Bool
	var returned atomic.Int32
	endless := func(cb func(string) bool) error {
		for {
			ok := cb("tok")
			returned.Add(1)
			if !ok {
				stopped.Store(true)
				return nil
			}
		}
	}
	b := newPredictBridge()
	require.NoError(t, b.start(endless))
	for i := 0; i < 2; i++ {
		_, fb, err := b.Step(context.Background())
		require.NoError(t, err)
		require.Equal(t, Continue, fb)
	}
	require.NoError(t, b.Close())
	// Close returns only after predict did.
	require.True(t, stopped.Load())
	require.EqualValues(t, 2, returned.Load())
	require.NoError(t, b.Close())
}

func TestPredictBridge_NotStarted(t *testing.T) {
	b := newPredictBridge()
	_, fb, err := b.Step(context.Background())
	require.Error(t, err)
	require.Equal(t, Stop, fb)
	require.NoError(t, b.Close())
}

func TestPredictBridge_StartTwice(t *testing.T) {
	b := newPredictBridge()
	noop := func(func(string) bool) error { return nil }
	require.NoError(t, b.start(noop))
	require.Error(t, b.start(noop))
	require.NoError(t, b.Close())
}

func TestPredictBridge_CanceledContext(t *testing.T) {
	var stopped atomic.Bool
	var returned atomic.Int32
	b := newPredictBridge()
	require.NoError(t, b.start(feedTokens([]string{"a", "b"}, nil, &stopped, &returned)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, fb, err := b.Step(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Stop, fb)
	require.NoError(t, b.Close())
	require.True(t, stopped.Load())
}
