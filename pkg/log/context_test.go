package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextCarry(t *testing.T) {
	lg := NewNoopLogger().WithName("carried")

	ctx := SetContextLogger(context.Background(), lg)
	assert.Equal(t, lg, FromContext(ctx))
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	lg := FromContext(context.Background())
	assert.Equal(t, "noop", lg.Name())
}

func TestSetContextLoggerNilFallsBackToNoop(t *testing.T) {
	ctx := SetContextLogger(context.Background(), nil)
	assert.Equal(t, "noop", FromContext(ctx).Name())
}
