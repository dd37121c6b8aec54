package embervk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

//CoreSwapchain owns the presentable image set and everything derived from it,
//image views, the depth attachment and the framebuffers. It is rebuilt
//independently of the frame ring whenever the output size changes, the old
//swapchain handle is passed through creation so in-flight presents drain
//cleanly.
type CoreSwapchain struct {
	device  *CoreDevice
	display *CoreDisplay

	depth         int
	swapchain     vk.Swapchain
	old_swapchain vk.Swapchain

	images       []vk.Image
	image_views  []vk.ImageView
	framebuffers []vk.Framebuffer

	depth_image *CoreImage

	extent   vk.Extent2D
	rect     vk.Rect2D
	viewport vk.Viewport
}

//NewCoreSwapchain prepares a swapchain with the desired image depth, Init
//performs the actual surface interrogation and creation
func NewCoreSwapchain(device *CoreDevice, display *CoreDisplay, desiredDepth int) *CoreSwapchain {
	return &CoreSwapchain{
		device:  device,
		display: display,
		depth:   desiredDepth,
	}
}

func (core *CoreSwapchain) Handle() vk.Swapchain {
	return core.swapchain
}

func (core *CoreSwapchain) Depth() int {
	return core.depth
}

func (core *CoreSwapchain) Rect() vk.Rect2D {
	return core.rect
}

func (core *CoreSwapchain) Viewport() vk.Viewport {
	return core.viewport
}

func (core *CoreSwapchain) Framebuffer(index int) vk.Framebuffer {
	return core.framebuffers[index]
}

func (core *CoreSwapchain) ImageViews() []vk.ImageView {
	return core.image_views
}

//Init interrogates the surface capabilities at the current window extent and
//builds the swapchain and its image views. Call again after TeardownFramebuffers
//to rebuild at a new extent.
func (core *CoreSwapchain) Init() error {
	gpu := core.device.Physical()
	device := core.device.Handle()
	surface := core.display.surface

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps)
	if isError(ret) {
		return NewError(ret)
	}
	caps.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, formats)
	if formatCount == 0 {
		return fmt.Errorf("No suitable surface color format found for display\n")
	}

	//Select an available format or go with default sRGBA
	format := formats[0]
	format.Deref()
	if format.Format == vk.FormatUndefined {
		format.Format = vk.FormatA8b8g8r8SrgbPack32
	}
	core.display.surface_format = format

	core.display.depth_format = selectDepthFormat(func(format vk.Format) bool {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(gpu, format, &props)
		props.Deref()
		features := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
		return props.OptimalTilingFeatures&features == features
	})

	caps.CurrentExtent.Deref()
	if caps.CurrentExtent.Width == vk.MaxUint32 {
		return fmt.Errorf("Surface capabilities return invalid frame width\n")
	}
	core.extent = caps.CurrentExtent
	core.display.extent = core.extent
	core.rect = vk.Rect2D{
		Offset: vk.Offset2D{},
		Extent: core.extent,
	}

	//FIFO is the only present mode every driver must support
	presentMode := vk.PresentModeFifo

	imageCount := uint32(core.depth)
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	} else if imageCount < caps.MinImageCount {
		imageCount = caps.MinImageCount
	}
	core.depth = int(imageCount)

	preTransform := caps.CurrentTransform
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		preTransform = vk.SurfaceTransformIdentityBit
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	core.old_swapchain = core.swapchain
	var swapchain vk.Swapchain
	ret = vk.CreateSwapchain(device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      core.extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      presentMode,
		OldSwapchain:     core.old_swapchain,
		Clipped:          vk.True,
	}, nil, &swapchain)
	if isError(ret) {
		return NewError(ret)
	}

	if core.old_swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(device, core.old_swapchain, nil)
		core.old_swapchain = vk.NullSwapchain
	}
	core.swapchain = swapchain

	var count uint32
	vk.GetSwapchainImages(device, core.swapchain, &count, nil)
	core.images = make([]vk.Image, count)
	vk.GetSwapchainImages(device, core.swapchain, &count, core.images)
	core.depth = int(count)

	core.image_views = make([]vk.ImageView, count)
	for index := uint32(0); index < count; index++ {
		view, err := newColorView(device, core.images[index], format.Format)
		if err != nil {
			return err
		}
		core.image_views[index] = view
	}

	core.viewport = vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(core.extent.Width),
		Height:   float32(core.extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	core.display.viewport = core.viewport
	return nil
}

//depthFormatCandidates ordered highest precision first
var depthFormatCandidates = []vk.Format{
	vk.FormatD32SfloatS8Uint,
	vk.FormatD32Sfloat,
	vk.FormatD24UnormS8Uint,
}

//selectDepthFormat picks the first candidate the device supports as an
//optimal tiling depth attachment, D16 is the universal fallback
func selectDepthFormat(supported func(vk.Format) bool) vk.Format {
	for _, format := range depthFormatCandidates {
		if supported(format) {
			return format
		}
	}
	return vk.FormatD16Unorm
}

func newColorView(device vk.Device, image vk.Image, format vk.Format) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if isError(ret) {
		return vk.NullImageView, NewError(ret)
	}
	return view, nil
}

//CreateFramebuffers allocates the depth attachment and one framebuffer per
//swapchain image against the given renderpass
func (core *CoreSwapchain) CreateFramebuffers(renderpass vk.RenderPass) error {
	device := core.device.Handle()

	depthImage, err := NewCoreImage(core.device, core.display.depth_format, core.extent,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return err
	}
	core.depth_image = depthImage

	core.framebuffers = make([]vk.Framebuffer, len(core.images))
	for index := 0; index < len(core.images); index++ {
		views := []vk.ImageView{core.image_views[index], depthImage.View()}
		var framebuffer vk.Framebuffer
		ret := vk.CreateFramebuffer(device, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderpass,
			AttachmentCount: uint32(len(views)),
			PAttachments:    views,
			Width:           core.extent.Width,
			Height:          core.extent.Height,
			Layers:          1,
		}, nil, &framebuffer)
		if isError(ret) {
			return NewError(ret)
		}
		core.framebuffers[index] = framebuffer
	}
	return nil
}

//TeardownFramebuffers destroys the framebuffers, image views and depth
//attachment ahead of a rebuild, the caller must hold a device idle wait
func (core *CoreSwapchain) TeardownFramebuffers() {
	device := core.device.Handle()
	for index := range core.framebuffers {
		vk.DestroyFramebuffer(device, core.framebuffers[index], nil)
	}
	core.framebuffers = nil
	for index := range core.image_views {
		vk.DestroyImageView(device, core.image_views[index], nil)
	}
	core.image_views = nil
	if core.depth_image != nil {
		core.depth_image.Destroy()
		core.depth_image = nil
	}
}

//Destroy tears down all derived state and the swapchain handle itself
func (core *CoreSwapchain) Destroy() {
	core.TeardownFramebuffers()
	if core.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(core.device.Handle(), core.swapchain, nil)
		core.swapchain = vk.NullSwapchain
	}
}
