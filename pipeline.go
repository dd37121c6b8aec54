package embervk

import (
	vk "github.com/vulkan-go/vulkan"
)

//CorePipeline registers built pipelines and their layouts by name. Pipeline
//construction itself is a stateless configuration builder, the engine only
//holds handles and defers their destruction to the global deletion queue,
//layout before pipeline so the reverse-order flush destroys the pipeline
//first.
type CorePipeline struct {
	layouts   map[string]vk.PipelineLayout
	pipelines map[string]vk.Pipeline
}

func NewCorePipeline() *CorePipeline {
	var core CorePipeline
	core.layouts = make(map[string]vk.PipelineLayout, 4)
	core.pipelines = make(map[string]vk.Pipeline, 4)
	return &core
}

func (c *CorePipeline) Pipeline(name string) (vk.Pipeline, bool) {
	p, ok := c.pipelines[name]
	return p, ok
}

func (c *CorePipeline) Layout(name string) (vk.PipelineLayout, bool) {
	l, ok := c.layouts[name]
	return l, ok
}

//NewDefaultPipelineLayout creates an empty pipeline layout with no descriptor
//sets or push constants
func NewDefaultPipelineLayout(device vk.Device) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(device, &vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}, nil, &layout)
	if isError(ret) {
		return vk.NullPipelineLayout, NewError(ret)
	}
	return layout, nil
}

//PipelineBuilder accumulates fixed function state for one graphics pipeline
type PipelineBuilder struct {
	_shaderStages         []vk.PipelineShaderStageCreateInfo
	_vertexInputInfo      vk.PipelineVertexInputStateCreateInfo
	_inputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	_rasterizer           vk.PipelineRasterizationStateCreateInfo
	_colorBlendAttachment vk.PipelineColorBlendAttachmentState
	_multisampling        vk.PipelineMultisampleStateCreateInfo
}

//NewPipelineBuilder seeds a default triangle pipeline from the program's
//vertex and fragment stages
func NewPipelineBuilder(program *ShaderProgram) *PipelineBuilder {

	pb := PipelineBuilder{}

	pb._shaderStages = []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			PName:  safeString("main"),
			Module: program.vertex_module,
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			PName:  safeString("main"),
			Module: program.fragment_module,
		},
	}

	pb._vertexInputInfo = vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}

	pb._inputAssembly = vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pb._rasterizer = vk.PipelineRasterizationStateCreateInfo{
		SType:            vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode:      vk.PolygonModeFill,
		CullMode:         vk.CullModeFlags(vk.CullModeNone),
		FrontFace:        vk.FrontFaceClockwise,
		DepthClampEnable: vk.False,
		LineWidth:        1.0,
	}

	pb._multisampling = vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	//No blend yet, but we do write the color attachment
	pb._colorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) |
			vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) |
			vk.ColorComponentFlags(vk.ColorComponentABit),
		BlendEnable: vk.False,
	}

	return &pb
}

//BuildPipeline assembles the final graphics pipeline against the given
//renderpass and layout, viewport and scissor track the display dynamically
func (p *PipelineBuilder) BuildPipeline(device vk.Device, renderpass vk.RenderPass,
	display *CoreDisplay, layout vk.PipelineLayout) (vk.Pipeline, error) {

	viewports := []vk.Viewport{display.viewport}
	scissors := []vk.Rect2D{{Offset: vk.Offset2D{}, Extent: display.extent}}

	viewState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    viewports,
		ScissorCount:  1,
		PScissors:     scissors,
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	attachments := []vk.PipelineColorBlendAttachmentState{p._colorBlendAttachment}
	blendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    attachments,
	}

	depthState := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vk.True,
		DepthWriteEnable: vk.True,
		DepthCompareOp:   vk.CompareOpLessOrEqual,
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(p._shaderStages)),
		PStages:             p._shaderStages,
		PVertexInputState:   &p._vertexInputInfo,
		PInputAssemblyState: &p._inputAssembly,
		PViewportState:      &viewState,
		PRasterizationState: &p._rasterizer,
		PMultisampleState:   &p._multisampling,
		PColorBlendState:    &blendState,
		PDepthStencilState:  &depthState,
		PDynamicState:       &dynamicState,
		Layout:              layout,
		RenderPass:          renderpass,
		Subpass:             0,
	}

	pipelines := []vk.Pipeline{vk.NullPipeline}
	ret := vk.CreateGraphicsPipelines(device, nil, 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines)
	if isError(ret) {
		return vk.NullPipeline, NewError(ret)
	}
	return pipelines[0], nil
}
