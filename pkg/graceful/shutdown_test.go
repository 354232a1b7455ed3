package graceful

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rail-service/bridge_service/pkg/logger"
)

func TestShutdownRunsComponentsInOrder(t *testing.T) {
	var order []string
	sm := NewShutdownManager(nil, logger.NewNop())
	sm.Register("sweeper", Closer(func() error {
		order = append(order, "sweeper")
		return errors.New("final sweep failed")
	}))
	sm.Register("tracer", ShutdownFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		order = append(order, "tracer")
		return nil
	}))
	sm.Register("storage", Closer(func() error {
		order = append(order, "storage")
		return nil
	}))

	sm.Shutdown()
	assert.Equal(t, []string{"sweeper", "tracer", "storage"}, order)
}

func TestShutdownFuncTimeout(t *testing.T) {
	f := ShutdownFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, f.Shutdown(10*time.Millisecond), context.DeadlineExceeded)
}
