package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listsnap/internal/shopping/models"
	"listsnap/pkg/platform/circuit"
)

type scriptedEngine struct {
	calls int
	err   error
}

func (e *scriptedEngine) Recognize(context.Context, string) (Recognition, error) {
	e.calls++
	if e.err != nil {
		return Recognition{Status: models.OCRFailed}, e.err
	}
	return Recognition{Text: "milk", Status: models.OCRCompleted}, nil
}

func TestGuardedOpensAfterFailures(t *testing.T) {
	engine := &scriptedEngine{err: errors.New("quota exceeded")}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2))
	g := NewGuarded(engine, breaker, nil)
	ctx := context.Background()

	for range 2 {
		_, err := g.Recognize(ctx, "/photos/a.jpg")
		require.Error(t, err)
	}
	assert.True(t, breaker.IsOpen())

	rec, err := g.Recognize(ctx, "/photos/a.jpg")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, models.OCRFailed, rec.Status)
	assert.Equal(t, 2, engine.calls, "open circuit must not reach the engine")
}

func TestGuardedPassesThroughSuccess(t *testing.T) {
	engine := &scriptedEngine{}
	g := NewGuarded(engine, circuit.New("test"), nil)

	rec, err := g.Recognize(context.Background(), "/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "milk", rec.Text)
}

func TestGuardedIgnoresCallerCancellation(t *testing.T) {
	engine := &scriptedEngine{err: context.Canceled}
	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	g := NewGuarded(engine, breaker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Recognize(ctx, "/photos/a.jpg")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, breaker.IsOpen())
}
