package logstream

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtether/tether/internal/domain"
)

func entry(line string, sev domain.Severity) domain.LogEntry {
	return domain.LogEntry{Line: line, Timestamp: time.Now(), Severity: sev}
}

func TestRingBuffer(t *testing.T) {
	t.Run("push and get all", func(t *testing.T) {
		rb := NewRingBuffer(10)
		rb.Push(entry("one", domain.SeverityInfo))
		rb.Push(entry("two", domain.SeverityError))

		all := rb.GetAll()
		require.Len(t, all, 2)
		assert.Equal(t, "one", all[0].Line)
		assert.Equal(t, "two", all[1].Line)
	})

	t.Run("drops oldest at capacity", func(t *testing.T) {
		rb := NewRingBuffer(3)
		for i := 1; i <= 5; i++ {
			rb.Push(entry(fmt.Sprintf("line %d", i), domain.SeverityInfo))
		}

		all := rb.GetAll()
		require.Len(t, all, 3)
		assert.Equal(t, "line 3", all[0].Line)
		assert.Equal(t, "line 5", all[2].Line)
	})

	t.Run("get last", func(t *testing.T) {
		rb := NewRingBuffer(10)
		for i := 1; i <= 5; i++ {
			rb.Push(entry(fmt.Sprintf("line %d", i), domain.SeverityInfo))
		}

		last := rb.GetLast(2)
		require.Len(t, last, 2)
		assert.Equal(t, "line 4", last[0].Line)
		assert.Equal(t, "line 5", last[1].Line)

		assert.Len(t, rb.GetLast(100), 5)
		assert.Empty(t, rb.GetLast(0))
	})

	t.Run("drain returns and clears atomically", func(t *testing.T) {
		rb := NewRingBuffer(10)
		rb.Push(entry("a", domain.SeverityInfo))
		rb.Push(entry("b", domain.SeverityCrash))

		drained := rb.Drain()
		require.Len(t, drained, 2)
		assert.Zero(t, rb.Count())
		assert.Empty(t, rb.Drain())
	})

	t.Run("count by severity", func(t *testing.T) {
		rb := NewRingBuffer(10)
		rb.Push(entry("a", domain.SeverityInfo))
		rb.Push(entry("b", domain.SeverityError))
		rb.Push(entry("c", domain.SeverityError))
		rb.Push(entry("d", domain.SeverityCrash))

		counts := rb.CountBySeverity()
		assert.Equal(t, 1, counts[domain.SeverityInfo])
		assert.Equal(t, 2, counts[domain.SeverityError])
		assert.Equal(t, 1, counts[domain.SeverityCrash])
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		rb := NewRingBuffer(10)
		rb.Push(entry("original", domain.SeverityInfo))

		all := rb.GetAll()
		all[0].Line = "mutated"
		assert.Equal(t, "original", rb.GetAll()[0].Line)
	})

	t.Run("concurrent pushers and readers", func(t *testing.T) {
		rb := NewRingBuffer(50)
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					rb.Push(entry(fmt.Sprintf("w%d-%d", w, i), domain.SeverityInfo))
					_ = rb.GetLast(5)
				}
			}(w)
		}
		wg.Wait()
		assert.Equal(t, 50, rb.Count())
	})
}
