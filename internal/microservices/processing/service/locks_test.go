package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderLocks(t *testing.T) {
	l := newOrderLocks()

	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)

	// другой заказ не блокируется
	unlockOther, err := l.Lock(context.Background(), 2)
	require.NoError(t, err)
	unlockOther()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, l.size())

	unlock, err = l.Lock(context.Background(), 1)
	require.NoError(t, err)
	unlock()
}
