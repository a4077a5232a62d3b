package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestKVStore_FaultHooks(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()
	boom := errors.New("boom")

	s.SetErr = func(key string) error {
		if key == "bad" {
			return boom
		}
		return nil
	}
	assert.ErrorIs(t, s.Set(ctx, "bad", "v"), boom)
	assert.NoError(t, s.Set(ctx, "good", "v"))
	assert.Equal(t, 2, s.SetCalls())

	_, ok, _ := s.Get(ctx, "bad")
	assert.False(t, ok, "failed writes must not be visible")

	s.GetErr = func(string) error { return boom }
	_, _, err := s.Get(ctx, "good")
	assert.ErrorIs(t, err, boom)
}
