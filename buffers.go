package embervk

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

//CoreBuffer is a uniform buffer replicated per frame slot so the CPU can
//write one copy while the GPU reads another. Each copy gets its own
//descriptor set carved from the owning slot allocator and the whole group
//registers with a deletion queue for teardown.
type CoreBuffer struct {
	name    string
	binding uint32
	size    vk.DeviceSize

	buffers []vk.Buffer
	memory  []vk.DeviceMemory
	sets    []vk.DescriptorSet
	layout  vk.DescriptorSetLayout
}

//NewCoreUniformBuffer creates one host visible buffer per frame copy with a
//single-binding uniform layout
func NewCoreUniformBuffer(device *CoreDevice, name string, binding uint32,
	stageFlags vk.ShaderStageFlags, byteSize int, copies int) (*CoreBuffer, error) {

	handle := device.Handle()
	core := &CoreBuffer{
		name:    name,
		binding: binding,
		size:    vk.DeviceSize(byteSize),
		buffers: make([]vk.Buffer, copies),
		memory:  make([]vk.DeviceMemory, copies),
		sets:    make([]vk.DescriptorSet, copies),
	}

	bindings := []vk.DescriptorSetLayoutBinding{{
		Binding:         binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		StageFlags:      stageFlags,
	}}
	ret := vk.CreateDescriptorSetLayout(handle, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    bindings,
	}, nil, &core.layout)
	if isError(ret) {
		return nil, NewError(ret)
	}

	for i := 0; i < copies; i++ {
		ret := vk.CreateBuffer(handle, &vk.BufferCreateInfo{
			SType:       vk.StructureTypeBufferCreateInfo,
			Usage:       vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			Size:        core.size,
			SharingMode: vk.SharingModeExclusive,
		}, nil, &core.buffers[i])
		if isError(ret) {
			return nil, NewError(ret)
		}

		var memReqs vk.MemoryRequirements
		vk.GetBufferMemoryRequirements(handle, core.buffers[i], &memReqs)
		memReqs.Deref()

		memType, _ := FindRequiredMemoryType(*device.MemoryProperties(), memReqs.MemoryTypeBits,
			vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
		ret = vk.AllocateMemory(handle, &vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  memReqs.Size,
			MemoryTypeIndex: memType,
		}, nil, &core.memory[i])
		if isError(ret) {
			return nil, NewError(ret)
		}
		vk.BindBufferMemory(handle, core.buffers[i], core.memory[i], 0)
	}

	return core, nil
}

//BindSets allocates one descriptor set per buffer copy from the given
//allocator and batches the binding writes through a DescriptorWriter
func (core *CoreBuffer) BindSets(device vk.Device, allocator *DescriptorAllocator) error {
	var writer DescriptorWriter
	for i := range core.buffers {
		set, err := allocator.Allocate(core.layout)
		if err != nil {
			return err
		}
		writer.WriteBuffer(core.binding, core.buffers[i], core.size, 0, vk.DescriptorTypeUniformBuffer)
		writer.UpdateSet(device, set)
		writer.Clear()
		core.sets[i] = set
	}
	return nil
}

//Set returns the descriptor set for the given frame copy
func (core *CoreBuffer) Set(index int) vk.DescriptorSet {
	return core.sets[index%len(core.sets)]
}

func (core *CoreBuffer) Layout() vk.DescriptorSetLayout {
	return core.layout
}

//MapWrite copies data into the frame copy's memory, host coherent so no
//explicit flush
func (core *CoreBuffer) MapWrite(device vk.Device, index int, data []byte) error {
	var pData unsafe.Pointer
	ret := vk.MapMemory(device, core.memory[index%len(core.memory)], 0, vk.DeviceSize(len(data)), 0, &pData)
	if isError(ret) {
		return NewError(ret)
	}
	vk.Memcopy(pData, data)
	vk.UnmapMemory(device, core.memory[index%len(core.memory)])
	return nil
}

//PushTo registers every owned handle with the queue, buffers and memory
//before the layout they depend on is irrelevant here since sets die with
//their pools, the layout goes last so it is destroyed first on flush
func (core *CoreBuffer) PushTo(queue *DeletionQueue) {
	for i := range core.buffers {
		queue.Push(BufferResource(core.buffers[i]))
		queue.Push(DeviceMemoryResource(core.memory[i]))
	}
	queue.Push(DescriptorSetLayoutResource(core.layout))
}
