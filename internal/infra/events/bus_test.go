package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFanOut(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(TopicStock, "eng-1")

	for _, ch := range []<-chan Change{a, b} {
		c := <-ch
		assert.Equal(t, TopicStock, c.Topic)
		assert.Equal(t, "eng-1", c.EngineerID)
		assert.False(t, c.At.IsZero())
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()
	// Overrun the buffer; Publish must not block.
	for i := 0; i < 50; i++ {
		bus.Publish(TopicRequests, "eng-1")
	}
	// The buffered prefix is still there.
	c := <-ch
	assert.Equal(t, TopicRequests, c.Topic)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Close()

	_, open := <-ch
	require.False(t, open)

	// Publish and a second Close after shutdown are no-ops.
	bus.Publish(TopicStock, "eng-1")
	bus.Close()

	late := bus.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
