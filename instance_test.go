package embervk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

//loopFake scripts the device side of the frame state machine. Result queues
//pop front to back, an empty queue means success.
type loopFake struct {
	waited    []vk.Fence
	submitted []vk.Fence
	resets    int
	acquires  int
	records   int
	presents  int
	idles     int
	rebuilds  int

	waitResults    []vk.Result
	acquireResults []vk.Result
	presentResults []vk.Result
}

func popResult(queue *[]vk.Result) vk.Result {
	if len(*queue) == 0 {
		return vk.Success
	}
	res := (*queue)[0]
	*queue = (*queue)[1:]
	return res
}

func (f *loopFake) install(core *CoreRenderInstance) {
	core.wait_fences = func(fences []vk.Fence, timeout uint64) vk.Result {
		f.waited = append(f.waited, fences...)
		return popResult(&f.waitResults)
	}
	core.reset_fences = func(fences []vk.Fence) vk.Result {
		f.resets++
		return vk.Success
	}
	core.acquire_image = func(sem vk.Semaphore, index *uint32) vk.Result {
		f.acquires++
		*index = 0
		return popResult(&f.acquireResults)
	}
	core.record_frame = func(frame *FrameData, imageIndex uint32) error {
		f.records++
		return nil
	}
	core.submit_queue = func(info vk.SubmitInfo, fence vk.Fence) vk.Result {
		f.submitted = append(f.submitted, fence)
		return vk.Success
	}
	core.present_queue = func(info *vk.PresentInfo) vk.Result {
		f.presents++
		return popResult(&f.presentResults)
	}
	core.device_idle = func() {
		f.idles++
	}
	core.rebuild_surface = func() error {
		f.rebuilds++
		return nil
	}
	core.record_immediate = func(fn func(cmd vk.CommandBuffer)) error {
		fn(core.imm_buffer)
		return nil
	}
}

func newLoopInstance() (*CoreRenderInstance, *loopFake) {
	core := &CoreRenderInstance{
		swapchain:     &CoreSwapchain{},
		fence_timeout: DefaultFenceTimeoutMS * 1e6,
	}
	for i := range core.frames {
		core.frames[i] = &FrameData{
			render_fence:   testFence(uint64(i) + 1),
			deletion_queue: NewDeletionQueue(nil),
			descriptors:    &DescriptorAllocator{},
		}
	}
	fake := &loopFake{}
	fake.install(core)
	return core, fake
}

func TestRunFrameAdvancesRing(t *testing.T) {
	core, fake := newLoopInstance()

	const iterations = 100
	for i := 0; i < iterations; i++ {
		require.NoError(t, core.RunFrame())
	}
	assert.Equal(t, uint64(iterations), core.FrameNumber())
	assert.Len(t, fake.submitted, iterations)
	assert.Equal(t, iterations, fake.records)
	assert.Equal(t, iterations, fake.presents)

	//slots alternate, and each submission reuses a fence only after it was
	//waited on, so at most FrameOverlap submissions are ever unconfirmed
	for i, fence := range fake.submitted {
		expect := core.frames[i%FrameOverlap].render_fence
		assert.Equal(t, expect, fence, "submission %d", i)
		assert.Equal(t, expect, fake.waited[i], "wait %d", i)
	}
}

func TestRunFrameReclaimsSlotResources(t *testing.T) {
	core, fake := newLoopInstance()

	flushed := false
	core.frames[0].deletion_queue.Push(CleanupResource(func() { flushed = true }))
	resets := 0
	core.frames[0].descriptors.ready = []vk.DescriptorPool{testPool(7)}
	core.frames[0].descriptors.resetPool = func(pool vk.DescriptorPool) { resets++ }

	require.NoError(t, core.RunFrame())
	assert.True(t, flushed, "slot deletion queue flushes after its fence wait")
	assert.Equal(t, 1, resets, "slot descriptor pools reset after its fence wait")
	assert.Equal(t, 1, fake.resets)
}

func TestRunFrameOutOfDateAcquire(t *testing.T) {
	core, fake := newLoopInstance()
	fake.acquireResults = []vk.Result{vk.ErrorOutOfDate}

	require.NoError(t, core.RunFrame())
	assert.Equal(t, 1, fake.idles, "stale surface forces a device idle wait")
	assert.Equal(t, 1, fake.rebuilds)
	assert.Equal(t, 2, fake.acquires, "acquire retried within the same frame")
	assert.Equal(t, 1, fake.records, "frame work happens exactly once")
	assert.Len(t, fake.submitted, 1)
	assert.Equal(t, uint64(1), core.FrameNumber())
}

func TestRunFrameSuboptimalAcquireRetry(t *testing.T) {
	core, fake := newLoopInstance()
	fake.acquireResults = []vk.Result{vk.Suboptimal, vk.Suboptimal}

	require.NoError(t, core.RunFrame())
	assert.Equal(t, 1, fake.rebuilds)
	assert.Equal(t, uint64(1), core.FrameNumber())
}

func TestRunFrameOutOfDatePresent(t *testing.T) {
	core, fake := newLoopInstance()
	fake.presentResults = []vk.Result{vk.ErrorOutOfDate}

	require.NoError(t, core.RunFrame())
	assert.Equal(t, 1, fake.rebuilds, "stale present rebuilds before the next frame")
	assert.Equal(t, uint64(1), core.FrameNumber(), "presented frame still counts")
}

func TestRunFrameFenceTimeout(t *testing.T) {
	core, fake := newLoopInstance()
	fake.waitResults = []vk.Result{vk.Timeout}

	flushed := false
	core.frames[0].deletion_queue.Push(CleanupResource(func() { flushed = true }))

	err := core.RunFrame()
	assert.ErrorIs(t, err, ErrFenceTimeout)
	assert.Equal(t, uint64(0), core.FrameNumber())
	assert.Empty(t, fake.submitted, "no submission after a timed out wait")
	assert.False(t, flushed, "slot resources stay pending until the fence confirms")
}

func TestRunFrameRebuildFailureHalts(t *testing.T) {
	core, fake := newLoopInstance()
	fake.acquireResults = []vk.Result{vk.ErrorOutOfDate}
	core.rebuild_surface = func() error {
		fake.rebuilds++
		return NewError(vk.ErrorInitializationFailed)
	}

	err := core.RunFrame()
	require.Error(t, err)
	assert.Equal(t, uint64(0), core.FrameNumber())
	assert.Empty(t, fake.submitted)
}

func TestImmediateSubmitGuard(t *testing.T) {
	core, _ := newLoopInstance()
	core.imm_active = true

	assert.Panics(t, func() {
		core.ImmediateSubmit(func(cmd vk.CommandBuffer) {})
	})
}

func TestImmediateSubmitTimeout(t *testing.T) {
	core, fake := newLoopInstance()
	fake.waitResults = []vk.Result{vk.Timeout}

	err := core.ImmediateSubmit(func(cmd vk.CommandBuffer) {})
	assert.ErrorIs(t, err, ErrFenceTimeout)
	assert.False(t, core.imm_active, "guard released on error")
}

func TestCurrentFrameAlternates(t *testing.T) {
	core, _ := newLoopInstance()

	first := core.CurrentFrame()
	require.NoError(t, core.RunFrame())
	second := core.CurrentFrame()
	require.NoError(t, core.RunFrame())

	assert.NotSame(t, first, second)
	assert.Same(t, first, core.CurrentFrame())
}
