package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestGetOrCreateStartsEmpty(t *testing.T) {
	store := NewStore(10, time.Hour)

	sess := store.GetOrCreate(42, t0)
	require.NotNil(t, sess)

	assert.Equal(t, int64(42), sess.UserID)
	assert.Empty(t, sess.History)
	assert.Zero(t, sess.MessageCount)
	assert.True(t, sess.LastInteraction.IsZero())

	assert.Same(t, sess, store.GetOrCreate(42, t0.Add(time.Second)))
	assert.NotSame(t, sess, store.GetOrCreate(43, t0))
	assert.Equal(t, 2, store.Len())
}

func TestHistoryNeverExceedsMaxTurns(t *testing.T) {
	sess := newSession(1, t0)

	for i := 1; i <= 25; i++ {
		sess.RecordUserTurn(fmt.Sprintf("message %d", i), t0)
		require.LessOrEqual(t, len(sess.History), MaxTurns)
	}

	assert.Equal(t, 25, sess.MessageCount)
	assert.Equal(t, "message 19", sess.History[0].UserText)
	assert.Equal(t, "message 25", sess.History[MaxTurns-1].UserText)
}

func TestRecordAIReplyTargetsLatestTurn(t *testing.T) {
	sess := newSession(1, t0)
	sess.RecordAIReply("ignored")

	sess.RecordUserTurn("first", t0)
	sess.RecordUserTurn("second", t0)
	sess.RecordAIReply("hey")

	assert.Empty(t, sess.History[0].AIReply)
	assert.Equal(t, "hey", sess.History[1].AIReply)
}

func TestAttachReplyToEvictedTurn(t *testing.T) {
	sess := newSession(1, t0)

	first := sess.RecordUserTurn("first", t0)
	for i := 0; i < MaxTurns; i++ {
		sess.RecordUserTurn("filler", t0)
	}

	assert.False(t, sess.AttachReply(first, "late"))

	last := sess.History[MaxTurns-1].Seq
	assert.True(t, sess.AttachReply(last, "ok"))
	assert.Equal(t, "ok", sess.History[MaxTurns-1].AIReply)
}

func TestResetCycle(t *testing.T) {
	sess := newSession(1, t0)
	seq := sess.RecordUserTurn("one", t0)
	sess.RecordUserTurn("two", t0)

	sess.ResetCycle()

	assert.Empty(t, sess.History)
	assert.Zero(t, sess.MessageCount)
	assert.False(t, sess.AttachReply(seq, "late"))

	sess.RecordUserTurn("three", t0)
	assert.Equal(t, 1, sess.MessageCount)
	assert.Len(t, sess.History, 1)
}

func TestPriorTurns(t *testing.T) {
	sess := newSession(1, t0)
	sess.RecordUserTurn("one", t0)
	sess.RecordAIReply("reply one")
	sess.RecordUserTurn("two", t0)
	current := sess.RecordUserTurn("three", t0)

	prior := sess.PriorTurns(current)
	require.Len(t, prior, 2)
	assert.Equal(t, "one", prior[0].UserText)
	assert.Equal(t, "reply one", prior[0].AIReply)

	prior[0].AIReply = "mutated"
	assert.Equal(t, "reply one", sess.History[0].AIReply)
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store := NewStore(2, time.Hour)

	first := store.GetOrCreate(1, t0)
	store.GetOrCreate(2, t0)
	store.GetOrCreate(1, t0)
	store.GetOrCreate(3, t0)

	assert.Equal(t, 2, store.Len())
	assert.Same(t, first, store.GetOrCreate(1, t0))
	assert.Len(t, store.index, 2)
}

func TestSweepDropsIdleSessions(t *testing.T) {
	store := NewStore(10, time.Minute)

	stale := store.GetOrCreate(1, t0)
	store.GetOrCreate(2, t0.Add(50*time.Second))

	removed := store.Sweep(t0.Add(90 * time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
	assert.NotSame(t, stale, store.GetOrCreate(1, t0.Add(90*time.Second)))
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	store := NewStore(10, 0)
	store.GetOrCreate(1, t0)

	assert.Zero(t, store.Sweep(t0.Add(24*time.Hour)))
	assert.Equal(t, 1, store.Len())
}

func TestConcurrentUsersDoNotContend(t *testing.T) {
	store := NewStore(100, time.Hour)

	var wg sync.WaitGroup
	for user := int64(1); user <= 20; user++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				sess := store.GetOrCreate(user, t0)
				sess.Lock()
				sess.RecordUserTurn("hello", t0)
				sess.Unlock()
			}
		}(user)
	}
	wg.Wait()

	for user := int64(1); user <= 20; user++ {
		sess := store.GetOrCreate(user, t0)
		assert.Equal(t, 10, sess.MessageCount)
		assert.Len(t, sess.History, MaxTurns)
	}
}
