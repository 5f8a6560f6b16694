package queue

import (
	"testing"

	"unlockbot/app/service/conversation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDropsWhenFull(t *testing.T) {
	svc := NewService(2)

	assert.True(t, svc.Add(conversation.Inbound{UserID: 1}))
	assert.True(t, svc.Add(conversation.Inbound{UserID: 2}))
	assert.False(t, svc.Add(conversation.Inbound{UserID: 3}))
	assert.Equal(t, 2, svc.Len())

	msg := <-svc.Channel()
	assert.Equal(t, int64(1), msg.UserID)
}

func TestAddAfterShutdown(t *testing.T) {
	svc := NewService(2)
	require.NoError(t, svc.Shutdown())
	require.NoError(t, svc.Shutdown())

	assert.False(t, svc.Add(conversation.Inbound{UserID: 1}))

	_, ok := <-svc.Channel()
	assert.False(t, ok)
}
