// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package correlate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutThenWaitOnce(t *testing.T) {
	s := New[string, int]()

	s.Put("a", 42)
	v, err := s.Wait(context.Background(), "a", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 0, s.Len())

	_, err = s.Wait(context.Background(), "a", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestStore_PutOverwrites(t *testing.T) {
	s := New[string, int]()

	s.Put("a", 1)
	s.Put("a", 2)
	assert.Equal(t, 1, s.Len())

	v, err := s.Wait(context.Background(), "a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestStore_WaitBlocksUntilPut(t *testing.T) {
	s := New[int, string]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Put(2, "other")
		time.Sleep(20 * time.Millisecond)
		s.Put(1, "mine")
	}()

	v, err := s.Wait(context.Background(), 1, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "mine", v)

	// The value for the other key is left for its own waiter
	assert.Equal(t, 1, s.Len())
}

func TestStore_ManyWaitersAllWake(t *testing.T) {
	s := New[int, int]()

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			v, err := s.Wait(context.Background(), k, time.Second)
			if err == nil {
				results[k] = v
			}
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	for i := range results {
		s.Put(i, i*10)
	}
	wg.Wait()

	assert.Equal(t, []int{0, 10, 20, 30, 40}, results)
}

func TestStore_ContextCancel(t *testing.T) {
	s := New[int, int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Wait(ctx, 1, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_DefaultTimeout(t *testing.T) {
	s := New[int, int](WithDefaultTimeout(15 * time.Millisecond))

	start := time.Now()
	_, err := s.Wait(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStore_Discard(t *testing.T) {
	s := New[int, int]()
	s.Put(1, 1)
	s.Discard(1)
	assert.Equal(t, 0, s.Len())
}
