package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLastIssuedWins(t *testing.T) {
	s := New()
	first := s.Next("items/1/title")
	second := s.Next("items/1/title")
	other := s.Next("items/2/title")

	require.False(t, s.IsLatest("items/1/title", first), "superseded by a newer request")
	require.True(t, s.IsLatest("items/1/title", second))
	require.True(t, s.IsLatest("items/2/title", other), "keys are independent")
}

func TestForgetAndReset(t *testing.T) {
	s := New()
	seq := s.Next("k")
	s.Forget("k")
	require.False(t, s.IsLatest("k", seq))

	seq = s.Next("k")
	s.Reset()
	require.False(t, s.IsLatest("k", seq))
	require.False(t, s.IsLatest("never", 0))
}

func TestConcurrentIssue(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	seqs := make([]uint64, 100)
	for i := range seqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seqs[i] = s.Next("k")
		}(i)
	}
	wg.Wait()

	latest := 0
	for _, seq := range seqs {
		if s.IsLatest("k", seq) {
			latest++
		}
	}
	require.Equal(t, 1, latest)
}
