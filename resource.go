package embervk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

//ResourceKind discriminates the closed set of GPU object variants a deletion
//queue can own. The set is closed on purpose, destruction is a flat dispatch
//and new kinds are added here rather than through subtyping.
type ResourceKind int

const (
	KindCommandPool ResourceKind = iota
	KindCommandBuffer
	KindFence
	KindSemaphore
	KindImage
	KindImageView
	KindBuffer
	KindSampler
	KindPipeline
	KindPipelineLayout
	KindDescriptorPool
	KindDescriptorSetLayout
	KindDeviceMemory
	KindAllocator
	KindCleanup
)

func (k ResourceKind) String() string {
	switch k {
	case KindCommandPool:
		return "command-pool"
	case KindCommandBuffer:
		return "command-buffer"
	case KindFence:
		return "fence"
	case KindSemaphore:
		return "semaphore"
	case KindImage:
		return "image"
	case KindImageView:
		return "image-view"
	case KindBuffer:
		return "buffer"
	case KindSampler:
		return "sampler"
	case KindPipeline:
		return "pipeline"
	case KindPipelineLayout:
		return "pipeline-layout"
	case KindDescriptorPool:
		return "descriptor-pool"
	case KindDescriptorSetLayout:
		return "descriptor-set-layout"
	case KindDeviceMemory:
		return "device-memory"
	case KindAllocator:
		return "allocator"
	case KindCleanup:
		return "cleanup"
	}
	return fmt.Sprintf("ResourceKind(%d)", int(k))
}

//Allocator is the teardown capability of an externally owned sub-allocator
//handle. The vulkan-go lineage has no native VMA binding so the variant holds
//the owner's own destroy hook
type Allocator interface {
	Destroy()
}

//Resource is a tagged variant over every GPU object kind the engine defers
//destruction for. Exactly the fields selected by kind are meaningful, the
//constructors below are the only way entries are built
type Resource struct {
	kind ResourceKind

	cmdPool    vk.CommandPool
	cmdBuffer  vk.CommandBuffer
	fence      vk.Fence
	semaphore  vk.Semaphore
	image      vk.Image
	view       vk.ImageView
	buffer     vk.Buffer
	sampler    vk.Sampler
	pipeline   vk.Pipeline
	pipeLayout vk.PipelineLayout
	descPool   vk.DescriptorPool
	descLayout vk.DescriptorSetLayout
	memory     vk.DeviceMemory
	allocator  Allocator
	cleanup    func()
}

func (r *Resource) Kind() ResourceKind { return r.kind }

func (r *Resource) String() string { return r.kind.String() }

func CommandPoolResource(pool vk.CommandPool) Resource {
	return Resource{kind: KindCommandPool, cmdPool: pool}
}

//CommandBufferResource carries the owning pool since freeing a command buffer
//requires it
func CommandBufferResource(pool vk.CommandPool, cmd vk.CommandBuffer) Resource {
	return Resource{kind: KindCommandBuffer, cmdPool: pool, cmdBuffer: cmd}
}

func FenceResource(fence vk.Fence) Resource {
	return Resource{kind: KindFence, fence: fence}
}

func SemaphoreResource(sem vk.Semaphore) Resource {
	return Resource{kind: KindSemaphore, semaphore: sem}
}

func ImageResource(image vk.Image) Resource {
	return Resource{kind: KindImage, image: image}
}

func ImageViewResource(view vk.ImageView) Resource {
	return Resource{kind: KindImageView, view: view}
}

func BufferResource(buffer vk.Buffer) Resource {
	return Resource{kind: KindBuffer, buffer: buffer}
}

func SamplerResource(sampler vk.Sampler) Resource {
	return Resource{kind: KindSampler, sampler: sampler}
}

func PipelineResource(pipeline vk.Pipeline) Resource {
	return Resource{kind: KindPipeline, pipeline: pipeline}
}

func PipelineLayoutResource(layout vk.PipelineLayout) Resource {
	return Resource{kind: KindPipelineLayout, pipeLayout: layout}
}

func DescriptorPoolResource(pool vk.DescriptorPool) Resource {
	return Resource{kind: KindDescriptorPool, descPool: pool}
}

func DescriptorSetLayoutResource(layout vk.DescriptorSetLayout) Resource {
	return Resource{kind: KindDescriptorSetLayout, descLayout: layout}
}

func DeviceMemoryResource(memory vk.DeviceMemory) Resource {
	return Resource{kind: KindDeviceMemory, memory: memory}
}

func AllocatorResource(allocator Allocator) Resource {
	return Resource{kind: KindAllocator, allocator: allocator}
}

//CleanupResource wraps a zero-argument closure for externally owned handles
//that have no natively typed teardown
func CleanupResource(fn func()) Resource {
	return Resource{kind: KindCleanup, cleanup: fn}
}

//destroy issues the kind specific device destroy call. Destroy calls are
//infallible per the vulkan API contract, an unrecognized kind is a programming
//error and panics
func (r *Resource) destroy(device vk.Device) {
	switch r.kind {
	case KindCommandPool:
		vk.DestroyCommandPool(device, r.cmdPool, nil)
	case KindCommandBuffer:
		vk.FreeCommandBuffers(device, r.cmdPool, 1, []vk.CommandBuffer{r.cmdBuffer})
	case KindFence:
		vk.DestroyFence(device, r.fence, nil)
	case KindSemaphore:
		vk.DestroySemaphore(device, r.semaphore, nil)
	case KindImage:
		vk.DestroyImage(device, r.image, nil)
	case KindImageView:
		vk.DestroyImageView(device, r.view, nil)
	case KindBuffer:
		vk.DestroyBuffer(device, r.buffer, nil)
	case KindSampler:
		vk.DestroySampler(device, r.sampler, nil)
	case KindPipeline:
		vk.DestroyPipeline(device, r.pipeline, nil)
	case KindPipelineLayout:
		vk.DestroyPipelineLayout(device, r.pipeLayout, nil)
	case KindDescriptorPool:
		vk.DestroyDescriptorPool(device, r.descPool, nil)
	case KindDescriptorSetLayout:
		vk.DestroyDescriptorSetLayout(device, r.descLayout, nil)
	case KindDeviceMemory:
		vk.FreeMemory(device, r.memory, nil)
	case KindAllocator:
		r.allocator.Destroy()
	case KindCleanup:
		r.cleanup()
	default:
		panic(fmt.Sprintf("embervk: unrecognized resource kind %d", int(r.kind)))
	}
}
