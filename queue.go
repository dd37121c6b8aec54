package embervk

import (
	vk "github.com/vulkan-go/vulkan"
)

//CoreQueue holds the queue family properties of one physical device and the
//queue handles created against its logical device
type CoreQueue struct {
	binded     []bool
	properties []vk.QueueFamilyProperties
	gpu        vk.PhysicalDevice
	queues     []vk.Queue
}

//NewCoreQueue lists the queue families available on a physical device, nil
//when the device exposes none
func NewCoreQueue(gpu vk.PhysicalDevice) *CoreQueue {
	var q CoreQueue
	var count uint32
	q.gpu = gpu
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	if count == 0 {
		return nil
	}
	q.properties = make([]vk.QueueFamilyProperties, count)
	q.binded = make([]bool, count)
	q.queues = make([]vk.Queue, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, q.properties)
	return &q
}

//GetCreateInfos builds device create infos with a single queue per family.
//Extend if more than one queue per family is needed.
func (q *CoreQueue) GetCreateInfos() []vk.DeviceQueueCreateInfo {
	count := len(q.properties)
	infos := make([]vk.DeviceQueueCreateInfo, count)
	priority := float32(1.0)
	for index := 0; index < count; index++ {
		infos[index] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(index),
			QueueCount:       1,
			PQueuePriorities: []float32{priority},
		}
	}
	return infos
}

//IsDeviceSuitable checks the device exposes at least one family matching the
//flag bits
func (q *CoreQueue) IsDeviceSuitable(flagBits uint32) bool {
	found, _ := q.FindSuitableQueue(flagBits)
	return found
}

//FindSuitableQueue returns the first family index matching the flag bits
func (q *CoreQueue) FindSuitableQueue(flagBits uint32) (bool, int) {
	for index := 0; index < len(q.properties); index++ {
		family := q.properties[index]
		family.Deref()
		flag := family.QueueFlags & vk.QueueFlags(flagBits)
		if flag == vk.QueueFlags(flagBits) {
			return true, index
		}
	}
	return false, 0
}

//CreateQueues initiates the actual queue objects, must be called after the
//logical device is established
func (q *CoreQueue) CreateQueues(device vk.Device) {
	for index := 0; index < len(q.properties); index++ {
		vk.GetDeviceQueue(device, uint32(index), 0, &q.queues[index])
	}
}

//BindGraphicsQueue gathers the primary graphics/present queue and marks its
//family bound
func (q *CoreQueue) BindGraphicsQueue() (bool, vk.Queue, int) {
	for index := 0; index < len(q.properties); index++ {
		family := q.properties[index]
		family.Deref()
		flag := family.QueueFlags & vk.QueueFlags(vk.QueueGraphicsBit)
		if flag == vk.QueueFlags(vk.QueueGraphicsBit) && !q.binded[index] {
			q.binded[index] = true
			return true, q.queues[index], index
		}
	}
	return false, nil, 0
}

//IsBound reports whether a family is already used by an instance
func (q *CoreQueue) IsBound(index int) bool {
	return q.binded[index]
}
