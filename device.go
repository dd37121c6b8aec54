package embervk

import vk "github.com/vulkan-go/vulkan"

//CoreDevice binds the selected physical device with its logical handle and
//cached properties
type CoreDevice struct {
	physical_devices                  []vk.PhysicalDevice
	selected_device                   vk.PhysicalDevice
	selected_device_properties        *vk.PhysicalDeviceProperties
	selected_device_memory_properties *vk.PhysicalDeviceMemoryProperties
	handle                            vk.Device
	key                               string
	queues                            *CoreQueue
}

func (d *CoreDevice) Handle() vk.Device {
	return d.handle
}

func (d *CoreDevice) Physical() vk.PhysicalDevice {
	return d.selected_device
}

func (d *CoreDevice) MemoryProperties() *vk.PhysicalDeviceMemoryProperties {
	return d.selected_device_memory_properties
}
