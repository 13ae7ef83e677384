package data

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_IncrementResetCount(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepo()

	count, err := ledger.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for want := 1; want <= 3; want++ {
		got, err := ledger.Increment(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, _ := ledger.Increment(ctx, "u2")
	assert.Equal(t, 1, got, "users are counted independently")

	require.NoError(t, ledger.Reset(ctx, "u1"))
	count, _ = ledger.Count(ctx, "u1")
	assert.Equal(t, 0, count)

	got, _ = ledger.Increment(ctx, "u1")
	assert.Equal(t, 1, got)
}

func TestLedger_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepo()

	const n = 200
	seen := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i], _ = ledger.Increment(ctx, "u1")
		}(i)
	}
	wg.Wait()

	count, _ := ledger.Count(ctx, "u1")
	assert.Equal(t, n, count)

	// Every increment observed a distinct count
	distinct := make(map[int]bool, n)
	for _, c := range seen {
		distinct[c] = true
	}
	assert.Len(t, distinct, n)
}
