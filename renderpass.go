package embervk

import (
	vk "github.com/vulkan-go/vulkan"
)

//CoreRenderPass wraps the primary renderpass with a color and depth
//attachment, attachment formats are generated from the display
type CoreRenderPass struct {
	renderPass vk.RenderPass
}

func NewCoreRenderPass() *CoreRenderPass {
	return &CoreRenderPass{}
}

func (c *CoreRenderPass) Handle() vk.RenderPass {
	return c.renderPass
}

//CreateRenderPass builds the default color+depth pass for the display's
//current surface and depth formats
func (c *CoreRenderPass) CreateRenderPass(device vk.Device, display *CoreDisplay) error {

	attachmentDescriptions := []vk.AttachmentDescription{
		{
			Format:         display.surface_format.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         display.depth_format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorReferences := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorReferences,
		PDepthStencilAttachment: &depthReference,
	}}

	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.MaxUint32,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}}

	ret := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &c.renderPass)
	if isError(ret) {
		return NewError(ret)
	}
	return nil
}

//Destroy releases the pass handle, safe to call repeatedly
func (c *CoreRenderPass) Destroy(device vk.Device) {
	if c.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(device, c.renderPass, nil)
		c.renderPass = vk.NullRenderPass
	}
}
