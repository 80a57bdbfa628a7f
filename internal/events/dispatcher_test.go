package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryDispatcher_PublishesToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventAccountCreated, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventPasswordChanged, func(context.Context, Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventAccountCreated, AccountID: "a1"})
	assert.NoError(t, err)
	assert.Equal(t, []EventType{EventAccountCreated}, got)
}

func TestInMemoryDispatcher_RunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	calls := 0
	d.Subscribe(EventProfileUpdated, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventProfileUpdated, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventProfileUpdated})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestInMemoryDispatcher_RecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()

	reached := false
	d.Subscribe(EventAccountLoggedIn, func(context.Context, Event) error { panic("bad handler") })
	d.Subscribe(EventAccountLoggedIn, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventAccountLoggedIn})
	assert.ErrorContains(t, err, "panic: bad handler")
	assert.True(t, reached)
}

func TestInMemoryDispatcher_NoSubscribers(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventPasswordChanged}))
}
