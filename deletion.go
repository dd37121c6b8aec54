package embervk

import vk "github.com/vulkan-go/vulkan"

//DeletionQueue tracks heterogeneous GPU handles and destroys them in reverse
//insertion order. Later created objects may depend on earlier ones (a pipeline
//depends on its layout), reverse order guarantees dependents die before their
//dependencies. The queue is not thread-safe, each instance is exclusively
//owned by one frame slot or by the engine-wide global queue, and the caller
//must own device access while flushing.
type DeletionQueue struct {
	device    vk.Device
	entries   []Resource
	destroyed bool

	//dispatch indirection so flush ordering stays observable without a live device
	destroyFn func(*Resource, vk.Device)
}

func NewDeletionQueue(device vk.Device) *DeletionQueue {
	return &DeletionQueue{
		device:    device,
		destroyFn: (*Resource).destroy,
	}
}

//Push appends a resource in O(1) and never fails
func (q *DeletionQueue) Push(res Resource) {
	if q.destroyed {
		panic("embervk: Push on a destroyed DeletionQueue")
	}
	q.entries = append(q.entries, res)
}

//Flush destroys every entry back to front then clears the queue. Flushing an
//empty queue is a no-op
func (q *DeletionQueue) Flush() {
	if q.destroyed {
		panic("embervk: Flush on a destroyed DeletionQueue")
	}
	for i := len(q.entries) - 1; i >= 0; i-- {
		q.destroyFn(&q.entries[i], q.device)
	}
	q.entries = q.entries[:0]
}

//Destroy flushes any remaining entries and releases the queue storage. The
//queue must not be reused afterward
func (q *DeletionQueue) Destroy() {
	q.Flush()
	q.entries = nil
	q.destroyed = true
}

//Len reports the number of pending entries, used for diagnostics
func (q *DeletionQueue) Len() int {
	return len(q.entries)
}
