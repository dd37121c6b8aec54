package embervk

import (
	vk "github.com/vulkan-go/vulkan"
)

//FrameOverlap is the number of frames allowed simultaneously in flight
//between CPU recording and GPU execution
const FrameOverlap = 2

//frameSetCount is the per-frame descriptor allocator's initial capacity,
//enough short-lived sets for a frame's worth of passes before growth kicks in
const frameSetCount = 1000

//defaultFrameRatios is the capacity split for the per-frame descriptor pools
var defaultFrameRatios = []PoolSizeRatio{
	{Type: vk.DescriptorTypeStorageImage, Ratio: 3},
	{Type: vk.DescriptorTypeStorageBuffer, Ratio: 3},
	{Type: vk.DescriptorTypeUniformBuffer, Ratio: 3},
	{Type: vk.DescriptorTypeCombinedImageSampler, Ratio: 4},
}

//FrameData is one slot of the double buffered frame ring. Each slot owns its
//command recording context, the GPU signal pair ordering acquire and present,
//the CPU visible completion fence, and private deletion/descriptor state that
//is reclaimed once the fence proves the GPU finished the slot's previous
//submission. Slots are allocated once at startup, reused cyclically via
//frame_number % FrameOverlap, and torn down only after a full device idle
//wait.
type FrameData struct {
	command_pool   *CorePool
	command_buffer vk.CommandBuffer

	swapchain_semaphore vk.Semaphore //image acquired
	render_semaphore    vk.Semaphore //render complete
	render_fence        vk.Fence

	deletion_queue *DeletionQueue
	descriptors    *DescriptorAllocator
}

//newFrameData builds one frame slot for the given queue family. The render
//fence starts signaled so the first WAIT_PREVIOUS on each slot passes without
//a prior submission.
func newFrameData(device vk.Device, familyIndex uint32) (*FrameData, error) {
	frame := &FrameData{}

	pool, err := NewCorePool(device, familyIndex)
	if err != nil {
		return nil, err
	}
	frame.command_pool = pool

	frame.command_buffer, err = pool.AllocatePrimary(device)
	if err != nil {
		pool.Destroy(device)
		return nil, err
	}

	ret := vk.CreateFence(device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &frame.render_fence)
	if isError(ret) {
		pool.Destroy(device)
		return nil, NewError(ret)
	}

	ret = vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &frame.swapchain_semaphore)
	if isError(ret) {
		frame.destroySync(device)
		pool.Destroy(device)
		return nil, NewError(ret)
	}

	ret = vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &frame.render_semaphore)
	if isError(ret) {
		frame.destroySync(device)
		pool.Destroy(device)
		return nil, NewError(ret)
	}

	frame.deletion_queue = NewDeletionQueue(device)
	frame.descriptors = &DescriptorAllocator{}
	if err := frame.descriptors.Init(device, frameSetCount, defaultFrameRatios); err != nil {
		frame.destroySync(device)
		pool.Destroy(device)
		return nil, err
	}
	return frame, nil
}

//CommandBuffer exposes the slot's recording context to render callbacks
func (f *FrameData) CommandBuffer() vk.CommandBuffer {
	return f.command_buffer
}

//Descriptors exposes the slot's descriptor allocator for per-frame sets
func (f *FrameData) Descriptors() *DescriptorAllocator {
	return f.descriptors
}

//DeletionQueue exposes the slot's deferred destruction queue, flushed once the
//slot's fence confirms the previous submission finished
func (f *FrameData) DeletionQueue() *DeletionQueue {
	return f.deletion_queue
}

func (f *FrameData) destroySync(device vk.Device) {
	if f.render_fence != vk.NullFence {
		vk.DestroyFence(device, f.render_fence, nil)
		f.render_fence = vk.NullFence
	}
	if f.swapchain_semaphore != vk.NullSemaphore {
		vk.DestroySemaphore(device, f.swapchain_semaphore, nil)
		f.swapchain_semaphore = vk.NullSemaphore
	}
	if f.render_semaphore != vk.NullSemaphore {
		vk.DestroySemaphore(device, f.render_semaphore, nil)
		f.render_semaphore = vk.NullSemaphore
	}
}

//destroy tears the slot down, only safe after a device idle wait
func (f *FrameData) destroy(device vk.Device) {
	f.deletion_queue.Destroy()
	f.descriptors.DestroyPools()
	f.destroySync(device)
	f.command_pool.Destroy(device)
}
