package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	id1, ch1 := b.Subscribe(4)
	_, ch2 := b.Subscribe(4)

	b.PublishNew(EventTypeTaskLogged, "task-1", "user-1", map[string]string{"mode": "Normal"})

	for _, ch := range []<-chan *Event{ch1, ch2} {
		ev := <-ch
		require.NotNil(t, ev)
		assert.Equal(t, EventTypeTaskLogged, ev.Type)
		assert.Equal(t, "task-1", ev.ResourceID)
		assert.Equal(t, "user-1", ev.UserID)
		assert.NotEmpty(t, ev.ID)
	}

	b.Unsubscribe(id1)
	_, open := <-ch1
	assert.False(t, open)
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := New()
	_, ch := b.Subscribe(1)

	b.PublishNew(EventTypePlanGenerated, "", "u", nil)
	b.PublishNew(EventTypePlanGenerated, "", "u", nil)

	assert.Len(t, ch, 1)
}

func TestBus_NilIsNoop(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() { b.Publish(&Event{}) })
}
