package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, typ string, v any) Event {
	t.Helper()
	e, err := NewEvent(typ, v)
	require.NoError(t, err)
	return e
}

func TestHubFanOut(t *testing.T) {
	h := NewHub(4)
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Len())

	e := mustEvent(t, PropertyCreated, map[string]string{"id": "1"})
	require.NoError(t, h.Publish(context.Background(), e))

	assert.Equal(t, e, <-a.Events())
	assert.Equal(t, e, <-b.Events())
	assert.JSONEq(t, `{"id":"1"}`, string(e.Data))
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub(1)
	s := h.Subscribe()
	ctx := context.Background()

	first := mustEvent(t, PropertyCreated, 1)
	require.NoError(t, h.Publish(ctx, first))
	require.NoError(t, h.Publish(ctx, mustEvent(t, PropertyUpdated, 2)))

	assert.Equal(t, 1, s.Dropped())
	assert.Equal(t, first, <-s.Events())
	select {
	case e := <-s.Events():
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestSubscriptionClose(t *testing.T) {
	h := NewHub(1)
	s := h.Subscribe()
	s.Close()
	s.Close()

	_, ok := <-s.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())
	require.NoError(t, h.Publish(context.Background(), mustEvent(t, PropertyDeleted, nil)))
}

func TestHubClose(t *testing.T) {
	h := NewHub(0)
	s := h.Subscribe()
	h.Close()
	h.Close()

	_, ok := <-s.Events()
	assert.False(t, ok)

	late := h.Subscribe()
	_, ok = <-late.Events()
	assert.False(t, ok)
	late.Close()

	err := h.Publish(context.Background(), mustEvent(t, PropertyCreated, 1))
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Publish(context.Background(), Event{Type: PropertyCreated}))
}
