package embervk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

//CorePool wraps one command pool created for a single queue family. Pools are
//created with the reset-command-buffer bit so recorded buffers can be recycled
//individually every frame
type CorePool struct {
	pool vk.CommandPool
}

func NewCorePool(device vk.Device, familyIndex uint32) (*CorePool, error) {
	var core CorePool
	var cmdPool vk.CommandPool

	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: familyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &cmdPool)

	if ret != vk.Success {
		return nil, fmt.Errorf("Error creating command pool: %w", NewError(ret))
	}

	core.pool = cmdPool
	return &core, nil
}

//AllocatePrimary carves one primary command buffer from the pool
func (c *CorePool) AllocatePrimary(device vk.Device) (vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)
	if isError(ret) {
		return nil, NewError(ret)
	}
	return buffers[0], nil
}

func (c *CorePool) Handle() vk.CommandPool {
	return c.pool
}

func (c *CorePool) Destroy(device vk.Device) {
	vk.DestroyCommandPool(device, c.pool, nil)
}
