package embervk

import (
	vk "github.com/vulkan-go/vulkan"
)

//CoreImage bundles an image with its backing device memory and default view.
//Used for engine owned attachments such as the swapchain depth buffer.
type CoreImage struct {
	device vk.Device
	image  vk.Image
	view   vk.ImageView
	memory vk.DeviceMemory
	format vk.Format
	extent vk.Extent2D
}

//NewCoreImage allocates a device local 2D image with memory bound and a view
//covering the requested aspect
func NewCoreImage(device *CoreDevice, format vk.Format, extent vk.Extent2D,
	usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (*CoreImage, error) {

	handle := device.Handle()
	core := &CoreImage{
		device: handle,
		format: format,
		extent: extent,
	}

	ret := vk.CreateImage(handle, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &core.image)
	if isError(ret) {
		return nil, NewError(ret)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(handle, core.image, &memReqs)
	memReqs.Deref()

	memType, _ := FindRequiredMemoryType(*device.MemoryProperties(),
		memReqs.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)

	ret = vk.AllocateMemory(handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &core.memory)
	if isError(ret) {
		vk.DestroyImage(handle, core.image, nil)
		return nil, NewError(ret)
	}
	vk.BindImageMemory(handle, core.image, core.memory, 0)

	ret = vk.CreateImageView(handle, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    core.image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &core.view)
	if isError(ret) {
		vk.FreeMemory(handle, core.memory, nil)
		vk.DestroyImage(handle, core.image, nil)
		return nil, NewError(ret)
	}
	return core, nil
}

func (core *CoreImage) View() vk.ImageView {
	return core.view
}

func (core *CoreImage) Handle() vk.Image {
	return core.image
}

//Destroy releases the view, image and memory in dependency order
func (core *CoreImage) Destroy() {
	vk.DestroyImageView(core.device, core.view, nil)
	vk.DestroyImage(core.device, core.image, nil)
	vk.FreeMemory(core.device, core.memory, nil)
}
