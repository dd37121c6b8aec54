package embervk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestDeletionQueueFlushReverseOrder(t *testing.T) {
	queue := NewDeletionQueue(nil)
	var order []string
	for _, tag := range []string{"first", "second", "third"} {
		tag := tag
		queue.Push(CleanupResource(func() {
			order = append(order, tag)
		}))
	}
	require.Equal(t, 3, queue.Len())

	queue.Flush()
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Equal(t, 0, queue.Len())
}

func TestDeletionQueueTypedReverseOrder(t *testing.T) {
	queue := NewDeletionQueue(nil)
	var kinds []ResourceKind
	queue.destroyFn = func(res *Resource, device vk.Device) {
		kinds = append(kinds, res.Kind())
	}

	//a layout pushed before the pipeline built on it must outlive that
	//pipeline on flush
	queue.Push(PipelineLayoutResource(vk.NullPipelineLayout))
	queue.Push(PipelineResource(vk.NullPipeline))
	queue.Push(FenceResource(vk.NullFence))
	queue.Flush()

	assert.Equal(t, []ResourceKind{KindFence, KindPipeline, KindPipelineLayout}, kinds)
}

func TestDeletionQueueEmptyFlush(t *testing.T) {
	queue := NewDeletionQueue(nil)
	calls := 0
	queue.destroyFn = func(res *Resource, device vk.Device) {
		calls++
	}

	queue.Flush()
	queue.Flush()
	assert.Zero(t, calls)
}

func TestDeletionQueueFlushClearsEntries(t *testing.T) {
	queue := NewDeletionQueue(nil)
	calls := 0
	queue.destroyFn = func(res *Resource, device vk.Device) {
		calls++
	}

	queue.Push(SemaphoreResource(vk.NullSemaphore))
	queue.Flush()
	queue.Flush()
	queue.Destroy()
	assert.Equal(t, 1, calls, "resource must only be destroyed once")
}

func TestDeletionQueueDestroy(t *testing.T) {
	queue := NewDeletionQueue(nil)
	ran := false
	queue.Push(CleanupResource(func() { ran = true }))
	queue.Destroy()
	assert.True(t, ran, "Destroy must flush pending entries")

	assert.Panics(t, func() { queue.Push(FenceResource(vk.NullFence)) })
	assert.Panics(t, func() { queue.Flush() })
}

func TestDeletionQueueInterleavedFlushes(t *testing.T) {
	queue := NewDeletionQueue(nil)
	var order []string
	push := func(tag string) {
		queue.Push(CleanupResource(func() {
			order = append(order, tag)
		}))
	}

	push("a")
	push("b")
	queue.Flush()
	push("c")
	queue.Flush()

	assert.Equal(t, []string{"b", "a", "c"}, order)
}
