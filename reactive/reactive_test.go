package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReactiveCycle(t *testing.T) {
	obs := New[int](2)
	sub := obs.Subscribe()
	defer sub.Cancel()
	obs.Publish(1)
	v := <-sub.Channel()
	assert.Equal(t, 1, v)
}

func TestReactiveCycleMultiple(t *testing.T) {
	obs := New[int](2)
	sub := obs.Subscribe()
	defer sub.Cancel()
	obs.Publish(1)
	obs.Publish(2)
	v := <-sub.Channel()
	assert.Equal(t, 1, v)
	v = <-sub.Channel()
	assert.Equal(t, 2, v)
}

func TestReactiveCycleMultipleSubscribers(t *testing.T) {
	obs := New[int](2)
	sub1 := obs.Subscribe()
	defer sub1.Cancel()
	sub2 := obs.Subscribe()
	defer sub2.Cancel()
	obs.Publish(1)
	obs.Publish(2)
	v := <-sub1.Channel()
	assert.Equal(t, 1, v)
	v = <-sub2.Channel()
	assert.Equal(t, 1, v)
	v = <-sub1.Channel()
	assert.Equal(t, 2, v)
	v = <-sub2.Channel()
	assert.Equal(t, 2, v)
}

func TestReactiveCycleMultipleSubscribersCancel(t *testing.T) {
	obs := New[int](2)
	sub1 := obs.Subscribe()
	sub2 := obs.Subscribe()
	sub1.Cancel()
	obs.Publish(1)
	obs.Publish(2)
	v := <-sub2.Channel()
	assert.Equal(t, 1, v)
	v = <-sub2.Channel()
	assert.Equal(t, 2, v)

	v = <-sub1.Channel()
	assert.Equal(t, 0, v) // zero value means channel is closed
}

func TestReactivePublishNeverBlocks(t *testing.T) {
	obs := New[int](1)
	sub := obs.Subscribe()
	defer sub.Cancel()
	obs.Publish(1)
	obs.Publish(2) // buffer full, dropped instead of blocking
	obs.Publish(3)
	v := <-sub.Channel()
	assert.Equal(t, 1, v)
	select {
	case v := <-sub.Channel():
		t.Fatalf("expected overflow to be dropped, received %v", v)
	default:
	}
}

func TestReactiveCycleLoop(t *testing.T) {
	obs := New[int](100)
	sub1 := obs.Subscribe()
	c1 := sub1.Channel()
	defer sub1.Cancel()
	sub2 := obs.Subscribe()
	c2 := sub2.Channel()
	defer sub2.Cancel()

	for i := 0; i < 100; i++ {
		obs.Publish(i)
	}

	for i := 0; i < 100; i++ {
		v := <-c1
		assert.Equal(t, i, v)
		v = <-c2
		assert.Equal(t, i, v)
	}
}
