package refs

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bradfitz/iter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetPop(t *testing.T) {
	var m Manager
	a := m.New("a", nil)
	b := m.New("b", nil)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, m.Len())
	v, err := m.Get(a)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	v, err = m.Pop(b)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	_, err = m.Get(b)
	assert.Equal(t, ErrBadRef, err)
	assert.EqualValues(t, map[Id]interface{}{a: "a"}, m.GetAll())
}

func TestIdsAreNotReused(t *testing.T) {
	var m Manager
	seen := make(map[Id]bool)
	for range iter.N(10) {
		id := m.New(nil, nil)
		require.False(t, seen[id])
		seen[id] = true
		_, err := m.Pop(id)
		require.NoError(t, err)
	}
}

func TestRelease(t *testing.T) {
	var m Manager
	var closed bool
	id := m.New(1, func() error {
		closed = true
		return errors.New("closing")
	})
	assert.EqualError(t, m.Release(id), "closing")
	assert.True(t, closed)
	assert.Equal(t, ErrBadRef, m.Release(id))
	assert.Equal(t, 0, m.Len())
}

func TestExpires(t *testing.T) {
	m := Manager{Expiry: 10 * time.Millisecond}
	var closed int32
	id := m.New(1, func() error {
		atomic.AddInt32(&closed, 1)
		return nil
	})
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&closed) == 1
	}, time.Second, time.Millisecond)
	_, err := m.Get(id)
	assert.Equal(t, ErrBadRef, err)
	assert.Equal(t, 0, m.Len())
}

func TestGetDefersExpiry(t *testing.T) {
	m := Manager{Expiry: 200 * time.Millisecond}
	id := m.New(1, func() error { return nil })
	for range iter.N(5) {
		time.Sleep(50 * time.Millisecond)
		_, err := m.Get(id)
		require.NoError(t, err)
	}
	_, err := m.Pop(id)
	require.NoError(t, err)
}
