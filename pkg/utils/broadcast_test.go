package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastFanOut(t *testing.T) {
	bc := NewBroadcast[int]()

	c1 := bc.NewConsumer()
	c2 := bc.NewConsumer()
	assert.True(t, bc.HasConsumer())

	bc.Send(1)
	bc.Send(2)

	assert.Equal(t, 1, <-c1.Chan)
	assert.Equal(t, 2, <-c1.Chan)
	assert.Equal(t, 1, <-c2.Chan)
	assert.Equal(t, 2, <-c2.Chan)
}

func TestBroadcastConsumerClose(t *testing.T) {
	bc := NewBroadcast[int]()

	c1 := bc.NewConsumer()
	c2 := bc.NewConsumer()

	c1.Close()
	bc.Send(3)

	assert.Equal(t, 3, <-c2.Chan)

	// The closed consumer's channel yields the zero value.
	_, ok := <-c1.Chan
	assert.False(t, ok)
}

func TestBroadcastClose(t *testing.T) {
	bc := NewBroadcast[int]()
	c := bc.NewConsumer()

	bc.Close()

	_, ok := <-c.Chan
	assert.False(t, ok)
	assert.False(t, bc.HasConsumer())
}

func TestBroadcastNoConsumers(t *testing.T) {
	bc := NewBroadcast[int]()

	assert.False(t, bc.HasConsumer())
	bc.Send(1)
}
