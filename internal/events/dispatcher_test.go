package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []string
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.SubjectID)
		return errors.New("smtp down")
	})
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventUserApproved, func(_ context.Context, e Event) error {
		t.Fatalf("unexpected delivery of %s", e.Type)
		return nil
	})

	err := d.Publish(context.Background(), New(EventUserRegistered, "", "u-1", UserRegisteredPayload{Username: "alice"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"first:u-1", "second:u-1"}, got)
}

func TestNewStampsEvent(t *testing.T) {
	e := New(EventCustomerCreated, "u-1", "c-1", nil)

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "u-1", e.ActorID)
}
