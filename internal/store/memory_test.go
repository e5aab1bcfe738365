package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-advisor/internal/chat"
)

func TestAppendPreservesOrder(t *testing.T) {
	s := NewMemoryStore(0)
	base := time.Now()

	const pairs = 5
	for i := 0; i < pairs; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		s.Append("s1",
			chat.NewTurn(chat.RoleUser, fmt.Sprintf("q%d", i), ts),
			chat.NewTurn(chat.RoleModel, fmt.Sprintf("a%d", i), ts),
		)
	}

	turns := s.Get("s1")
	require.Len(t, turns, pairs*2)
	for i := 0; i < pairs; i++ {
		assert.Equal(t, chat.RoleUser, turns[2*i].Role)
		assert.Equal(t, fmt.Sprintf("q%d", i), turns[2*i].Text)
		assert.Equal(t, chat.RoleModel, turns[2*i+1].Role)
		assert.Equal(t, fmt.Sprintf("a%d", i), turns[2*i+1].Text)
	}
	for i := 1; i < len(turns); i++ {
		assert.GreaterOrEqual(t, turns[i].Timestamp, turns[i-1].Timestamp)
	}
}

func TestAppendReturnsLength(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now()

	assert.Equal(t, 2, s.Append("s1", chat.NewTurn(chat.RoleUser, "a", now), chat.NewTurn(chat.RoleModel, "b", now)))
	assert.Equal(t, 3, s.Append("s1", chat.NewTurn(chat.RoleUser, "c", now)))
}

func TestGetMissingSessionIsEmpty(t *testing.T) {
	s := NewMemoryStore(0)

	turns := s.Get("missing")
	require.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0)
	s.Append("s1", chat.NewTurn(chat.RoleUser, "original", time.Now()))

	turns := s.Get("s1")
	turns[0].Text = "mutated"

	assert.Equal(t, "original", s.Get("s1")[0].Text)
}

func TestTruncateKeepsMostRecent(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now()
	for i := 0; i < 30; i++ {
		s.Append("s1", chat.NewTurn(chat.RoleUser, fmt.Sprintf("t%d", i), now))
	}

	s.Truncate("s1", 20)

	turns := s.Get("s1")
	require.Len(t, turns, 20)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("t%d", i+10), turn.Text)
	}
}

func TestTruncateNoop(t *testing.T) {
	s := NewMemoryStore(0)
	s.Append("s1", chat.NewTurn(chat.RoleUser, "only", time.Now()))

	s.Truncate("s1", 20)
	s.Truncate("s1", 0)
	s.Truncate("missing", 5)

	assert.Len(t, s.Get("s1"), 1)
	assert.Equal(t, 1, s.Len())
}

func TestClearMissingSession(t *testing.T) {
	s := NewMemoryStore(0)

	s.Clear("never-created")

	assert.Empty(t, s.Get("never-created"))
}

func TestClearRemovesSession(t *testing.T) {
	s := NewMemoryStore(0)
	s.Append("s1", chat.NewTurn(chat.RoleUser, "hi", time.Now()))

	s.Clear("s1")

	assert.Empty(t, s.Get("s1"))
	assert.Equal(t, 0, s.Len())
}

func TestMaxTurnsCap(t *testing.T) {
	s := NewMemoryStore(4)
	now := time.Now()
	for i := 0; i < 6; i++ {
		s.Append("s1", chat.NewTurn(chat.RoleUser, fmt.Sprintf("t%d", i), now))
	}

	turns := s.Get("s1")
	require.Len(t, turns, 4)
	assert.Equal(t, "t2", turns[0].Text)
	assert.Equal(t, "t5", turns[3].Text)
}

func TestSweep(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now()

	s.Append("stale", chat.NewTurn(chat.RoleUser, "old", now.Add(-61*time.Minute)))
	s.Append("fresh", chat.NewTurn(chat.RoleUser, "recent", now.Add(-30*time.Minute)))
	s.Append("empty")

	removed := s.Sweep(now.Add(-time.Hour))

	assert.Equal(t, 2, removed)
	assert.Empty(t, s.Get("stale"))
	assert.Len(t, s.Get("fresh"), 1)
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentAppends(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append("shared", chat.NewTurn(chat.RoleUser, "x", now))
			s.Truncate("shared", 100)
			_ = s.Get("shared")
		}()
	}
	wg.Wait()

	assert.Len(t, s.Get("shared"), 50)
}
