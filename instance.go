package embervk

import (
	"fmt"
	"log"
	"os"

	vk "github.com/vulkan-go/vulkan"
)

//CoreRenderInstance drives the per-frame acquire/record/submit/present state
//machine against a single logical device. One CPU thread owns the instance,
//the GPU executes on its own timeline and the two meet only at the bounded
//fence waits. Per-frame state lives in the FrameData ring, engine lifetime
//objects ride the global deletion queue and die in reverse creation order at
//shutdown.
type CoreRenderInstance struct {

	//Instances
	instance            vk.Instance
	instance_extensions *BaseInstanceExtensions
	device_extensions   *BaseDeviceExtensions
	validation_layers   *BaseLayerExtensions
	name                string

	//Single logical device for the instance
	logical_device      *CoreDevice
	display             *CoreDisplay
	queues              *CoreQueue
	render_queue        vk.Queue
	render_queue_family uint32

	//Presentation surface state
	swapchain    *CoreSwapchain
	renderpasses map[string]*CoreRenderPass

	//Pipelines
	pipelines *CorePipeline
	shaders   *CoreShader

	//Frame ring
	frames       [FrameOverlap]*FrameData
	frame_number uint64

	//Engine lifetime teardown
	main_deletion_queue *DeletionQueue

	//Per-frame render callbacks, invoked in registration order during RECORD
	frame_callbacks []RenderCallback

	//Immediate submit context, one-off GPU work outside the frame cadence
	imm_pool   *CorePool
	imm_buffer vk.CommandBuffer
	imm_fence  vk.Fence
	imm_active bool

	//Bounded fence wait in nanoseconds, exceeding it is treated as device loss
	fence_timeout uint64

	info_log  *log.Logger
	error_log *log.Logger

	//Device call indirection for the frame state machine, bound to real vk
	//calls by bindDeviceCalls and swapped by unit tests
	wait_fences      func(fences []vk.Fence, timeout uint64) vk.Result
	reset_fences     func(fences []vk.Fence) vk.Result
	acquire_image    func(sem vk.Semaphore, index *uint32) vk.Result
	record_frame     func(frame *FrameData, imageIndex uint32) error
	submit_queue     func(info vk.SubmitInfo, fence vk.Fence) vk.Result
	present_queue    func(info *vk.PresentInfo) vk.Result
	device_idle      func()
	rebuild_surface  func() error
	record_immediate func(fn func(cmd vk.CommandBuffer)) error
}

//NewCoreRenderInstance attaches the given vulkan instance to a primary
//graphics compatible device and builds the frame ring, swapchain, default
//renderpass and pipeline
func NewCoreRenderInstance(instance vk.Instance, name string, instanceExtensions *BaseInstanceExtensions,
	validationLayers *BaseLayerExtensions, deviceExtensions []string, display *CoreDisplay,
	shaders *CoreShader, config *Usage) (*CoreRenderInstance, error) {

	var core CoreRenderInstance

	core.instance = instance
	core.instance_extensions = instanceExtensions
	core.validation_layers = validationLayers
	core.display = display
	core.logical_device = &CoreDevice{key: name}
	core.name = name
	core.renderpasses = make(map[string]*CoreRenderPass, 4)
	core.shaders = shaders
	core.info_log = log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	core.error_log = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	timeoutMS := DefaultFenceTimeoutMS
	if config != nil {
		timeoutMS = config.IntOr(PropFenceTimeoutMS, DefaultFenceTimeoutMS)
	}
	core.fence_timeout = uint64(timeoutMS) * 1e6

	if _, err := display.CreateSurface(instance); err != nil {
		return nil, err
	}

	if err := core.initDevice(deviceExtensions); err != nil {
		return nil, err
	}
	core.bindDeviceCalls()

	if err := core.initRenderState(); err != nil {
		return nil, err
	}
	return &core, nil
}

//SetLoggers replaces the default stderr sinks, nil entries keep the current
//logger
func (core *CoreRenderInstance) SetLoggers(info, errs *log.Logger) {
	if info != nil {
		core.info_log = info
	}
	if errs != nil {
		core.error_log = errs
	}
}

func (core *CoreRenderInstance) initDevice(deviceExtensions []string) error {

	var gpu_count uint32
	ret := vk.EnumeratePhysicalDevices(core.instance, &gpu_count, nil)
	if isError(ret) {
		return NewError(ret)
	}
	if gpu_count == 0 {
		return fmt.Errorf("No valid physical devices found, count is 0\n")
	}

	gpus := make([]vk.PhysicalDevice, gpu_count)
	ret = vk.EnumeratePhysicalDevices(core.instance, &gpu_count, gpus)
	if isError(ret) {
		return NewError(ret)
	}
	core.logical_device.physical_devices = append(core.logical_device.physical_devices, gpus...)

	//Select valid device by desired queue properties
	has_device := false
	for index := 0; index < int(gpu_count); index++ {
		gpu := gpus[index]
		q := NewCoreQueue(gpu)
		if q != nil && q.IsDeviceSuitable(uint32(vk.QueueGraphicsBit)) {
			core.logical_device.selected_device = gpu
			core.logical_device.selected_device_properties = &vk.PhysicalDeviceProperties{}
			core.logical_device.selected_device_memory_properties = &vk.PhysicalDeviceMemoryProperties{}
			has_device = true
			break
		}
	}
	if !has_device {
		return fmt.Errorf("Could not find suitable GPU device for graphics and presentation\n")
	}

	vk.GetPhysicalDeviceProperties(core.logical_device.selected_device, core.logical_device.selected_device_properties)
	core.logical_device.selected_device_properties.Deref()
	vk.GetPhysicalDeviceMemoryProperties(core.logical_device.selected_device, core.logical_device.selected_device_memory_properties)
	core.logical_device.selected_device_memory_properties.Deref()

	core.device_extensions = NewBaseDeviceExtensions(deviceExtensions, []string{}, core.logical_device.selected_device)
	if ok, missing := core.device_extensions.HasWanted(); !ok {
		core.info_log.Printf("Vulkan missing device extensions %v", missing)
	}

	device_queue := NewCoreQueue(core.logical_device.selected_device)
	queue_infos := device_queue.GetCreateInfos()
	dev_extensions := core.device_extensions.GetExtensions()

	var device vk.Device
	ret = vk.CreateDevice(core.logical_device.selected_device, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queue_infos)),
		PQueueCreateInfos:       queue_infos,
		EnabledExtensionCount:   uint32(len(dev_extensions)),
		PpEnabledExtensionNames: dev_extensions,
		EnabledLayerCount:       uint32(len(core.validation_layers.GetExtensions())),
		PpEnabledLayerNames:     core.validation_layers.GetExtensions(),
	}, nil, &device)
	if isError(ret) {
		return fmt.Errorf("Fatal error creating logical device: %w", NewError(ret))
	}

	core.logical_device.handle = device
	core.main_deletion_queue = NewDeletionQueue(device)

	device_queue.CreateQueues(device)
	core.queues = device_queue
	core.logical_device.queues = device_queue

	found, q_handle, family := device_queue.BindGraphicsQueue()
	if !found {
		return fmt.Errorf("No valid graphics queue handle on device\n")
	}
	core.render_queue = q_handle
	core.render_queue_family = uint32(family)
	return nil
}

func (core *CoreRenderInstance) initRenderState() error {
	device := core.logical_device.handle

	//Presentation surface state
	core.swapchain = NewCoreSwapchain(core.logical_device, core.display, FrameOverlap+1)
	if err := core.swapchain.Init(); err != nil {
		return err
	}

	core.renderpasses["Primary"] = NewCoreRenderPass()
	if err := core.renderpasses["Primary"].CreateRenderPass(device, core.display); err != nil {
		return err
	}
	core.main_deletion_queue.Push(CleanupResource(func() {
		core.renderpasses["Primary"].Destroy(device)
	}))
	if err := core.swapchain.CreateFramebuffers(core.renderpasses["Primary"].Handle()); err != nil {
		return err
	}

	//Frame ring
	for i := 0; i < FrameOverlap; i++ {
		frame, err := newFrameData(device, core.render_queue_family)
		if err != nil {
			return err
		}
		core.frames[i] = frame
	}

	//Immediate submit context
	pool, err := NewCorePool(device, core.render_queue_family)
	if err != nil {
		return err
	}
	core.imm_pool = pool
	core.main_deletion_queue.Push(CommandPoolResource(pool.Handle()))

	core.imm_buffer, err = pool.AllocatePrimary(device)
	if err != nil {
		return err
	}

	ret := vk.CreateFence(device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &core.imm_fence)
	if isError(ret) {
		return NewError(ret)
	}
	core.main_deletion_queue.Push(FenceResource(core.imm_fence))

	//Default pipeline, layout first then the pipeline that depends on it
	if core.shaders != nil {
		core.pipelines = NewCorePipeline()
		layout, err := NewDefaultPipelineLayout(device)
		if err != nil {
			return err
		}
		core.pipelines.layouts["default"] = layout
		core.main_deletion_queue.Push(PipelineLayoutResource(layout))

		program, ok := core.shaders.Program("default")
		if !ok {
			if err := core.shaders.CreateProgram("default", device); err != nil {
				return err
			}
			program, _ = core.shaders.Program("default")
		}
		builder := NewPipelineBuilder(program)
		pipeline, err := builder.BuildPipeline(device, core.renderpasses["Primary"].Handle(), core.display, layout)
		if err != nil {
			return err
		}
		core.pipelines.pipelines["default"] = pipeline
		core.main_deletion_queue.Push(PipelineResource(pipeline))
	}
	return nil
}

func (core *CoreRenderInstance) bindDeviceCalls() {
	device := core.logical_device.handle
	core.wait_fences = func(fences []vk.Fence, timeout uint64) vk.Result {
		return vk.WaitForFences(device, uint32(len(fences)), fences, vk.True, timeout)
	}
	core.reset_fences = func(fences []vk.Fence) vk.Result {
		return vk.ResetFences(device, uint32(len(fences)), fences)
	}
	core.acquire_image = func(sem vk.Semaphore, index *uint32) vk.Result {
		return vk.AcquireNextImage(device, core.swapchain.Handle(), core.fence_timeout, sem, vk.NullFence, index)
	}
	core.record_frame = core.recordCommands
	core.submit_queue = func(info vk.SubmitInfo, fence vk.Fence) vk.Result {
		return vk.QueueSubmit(core.render_queue, 1, []vk.SubmitInfo{info}, fence)
	}
	core.present_queue = func(info *vk.PresentInfo) vk.Result {
		return vk.QueuePresent(core.render_queue, info)
	}
	core.device_idle = func() {
		vk.DeviceWaitIdle(device)
	}
	core.rebuild_surface = core.rebuildSurface
	core.record_immediate = core.recordImmediate
}

//recordImmediate replays fn into the dedicated one-shot command buffer
func (core *CoreRenderInstance) recordImmediate(fn func(cmd vk.CommandBuffer)) error {
	cmd := core.imm_buffer
	if res := vk.ResetCommandBuffer(cmd, 0); isError(res) {
		return NewError(res)
	}
	if res := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); isError(res) {
		return NewError(res)
	}
	fn(cmd)
	if res := vk.EndCommandBuffer(cmd); isError(res) {
		return NewError(res)
	}
	return nil
}

//CurrentFrame returns the ring slot for the in-progress frame
func (core *CoreRenderInstance) CurrentFrame() *FrameData {
	return core.frames[core.frame_number%FrameOverlap]
}

//FrameNumber reports the number of completed frame iterations
func (core *CoreRenderInstance) FrameNumber() uint64 {
	return core.frame_number
}

//AddFrameCallback registers a per-frame draw command producer. Callbacks
//receive the slot's command buffer and the slot itself for per-frame
//allocations, they run in registration order inside the primary renderpass.
func (core *CoreRenderInstance) AddFrameCallback(cb RenderCallback) {
	core.frame_callbacks = append(core.frame_callbacks, cb)
}

//RunFrame advances the frame state machine one full iteration:
//WAIT_PREVIOUS -> ACQUIRE_IMAGE -> RECORD -> SUBMIT -> PRESENT. A returned
//error is fatal for the loop, the frame aborts cleanly without a partial
//submission and the caller decides whether to halt the process.
func (core *CoreRenderInstance) RunFrame() error {
	frame := core.CurrentFrame()

	//WAIT_PREVIOUS blocks until the GPU confirms the submission that last
	//used this slot, which proves the slot's per-frame resources are
	//reclaimable
	res := core.wait_fences([]vk.Fence{frame.render_fence}, core.fence_timeout)
	if res == vk.Timeout {
		return fmt.Errorf("frame %d: %w", core.frame_number, ErrFenceTimeout)
	}
	if isError(res) {
		return NewError(res)
	}
	frame.deletion_queue.Flush()
	frame.descriptors.ClearPools()

	if res := core.reset_fences([]vk.Fence{frame.render_fence}); isError(res) {
		return NewError(res)
	}

	//ACQUIRE_IMAGE, a stale surface enters the resize sub-protocol and the
	//acquire retries within the same logical frame
	var imageIndex uint32
	res = core.acquire_image(frame.swapchain_semaphore, &imageIndex)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		if err := core.resize(); err != nil {
			return err
		}
		res = core.acquire_image(frame.swapchain_semaphore, &imageIndex)
	}
	if isError(res) && res != vk.Suboptimal {
		return NewError(res)
	}

	//RECORD
	if err := core.record_frame(frame, imageIndex); err != nil {
		return err
	}

	//SUBMIT waits on the acquire signal and raises the render complete signal
	//plus the slot fence, the GPU enforces this chain end to end
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.swapchain_semaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{frame.command_buffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.render_semaphore},
	}
	if res := core.submit_queue(submit, frame.render_fence); isError(res) {
		return NewError(res)
	}

	//PRESENT
	present := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.render_semaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{core.swapchain.Handle()},
		PImageIndices:      []uint32{imageIndex},
	}
	res = core.present_queue(&present)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		if err := core.resize(); err != nil {
			return err
		}
	} else if isError(res) {
		return NewError(res)
	}

	core.frame_number++
	return nil
}

//resize is the presentation surface invalidation sub-protocol, a full device
//idle wait then a rebuild of the surface state at the new extent. Frame slots
//are untouched, surface state lifetime is independent of the ring.
func (core *CoreRenderInstance) resize() error {
	core.device_idle()
	return core.rebuild_surface()
}

func (core *CoreRenderInstance) rebuildSurface() error {
	device := core.logical_device.handle
	core.swapchain.TeardownFramebuffers()
	if err := core.swapchain.Init(); err != nil {
		return err
	}
	rp := core.renderpasses["Primary"]
	rp.Destroy(device)
	if err := rp.CreateRenderPass(device, core.display); err != nil {
		return err
	}
	return core.swapchain.CreateFramebuffers(rp.Handle())
}

//recordCommands resets and begins the slot's command context, replays the
//registered callbacks inside the primary renderpass and ends recording
func (core *CoreRenderInstance) recordCommands(frame *FrameData, imageIndex uint32) error {
	cmd := frame.command_buffer

	if res := vk.ResetCommandBuffer(cmd, 0); isError(res) {
		return NewError(res)
	}
	if res := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); isError(res) {
		return NewError(res)
	}

	clearValues := []vk.ClearValue{
		vk.NewClearValue([]float32{0.0, 0.0, 0.0, 1.0}),
		vk.NewClearDepthStencil(1.0, 0.0),
	}
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      core.renderpasses["Primary"].Handle(),
		Framebuffer:     core.swapchain.Framebuffer(int(imageIndex)),
		RenderArea:      core.swapchain.Rect(),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	viewports := []vk.Viewport{core.swapchain.Viewport()}
	scissors := []vk.Rect2D{core.swapchain.Rect()}
	vk.CmdSetViewport(cmd, 0, 1, viewports)
	vk.CmdSetScissor(cmd, 0, 1, scissors)

	if core.pipelines != nil {
		if pipeline, ok := core.pipelines.pipelines["default"]; ok {
			vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipeline)
		}
	}
	for _, cb := range core.frame_callbacks {
		cb(cmd, frame)
	}

	vk.CmdEndRenderPass(cmd)
	if res := vk.EndCommandBuffer(cmd); isError(res) {
		return NewError(res)
	}
	return nil
}

//ImmediateSubmit records fn into a dedicated command context and fully blocks
//until the GPU confirms completion, for one-off work outside the frame
//cadence such as uploads before any frame begins. Not safe to invoke
//concurrently with itself.
func (core *CoreRenderInstance) ImmediateSubmit(fn func(cmd vk.CommandBuffer)) error {
	if core.imm_active {
		panic("embervk: ImmediateSubmit invoked concurrently with itself")
	}
	core.imm_active = true
	defer func() { core.imm_active = false }()

	if res := core.reset_fences([]vk.Fence{core.imm_fence}); isError(res) {
		return NewError(res)
	}
	if err := core.record_immediate(fn); err != nil {
		return err
	}
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{core.imm_buffer},
	}
	if res := core.submit_queue(submit, core.imm_fence); isError(res) {
		return NewError(res)
	}

	res := core.wait_fences([]vk.Fence{core.imm_fence}, core.fence_timeout)
	if res == vk.Timeout {
		return fmt.Errorf("immediate submit: %w", ErrFenceTimeout)
	}
	if isError(res) {
		return NewError(res)
	}
	return nil
}

//Destroy drains all in-flight frames with a full device idle wait, then tears
//down the frame ring, the surface state and finally the global deletion queue
func (core *CoreRenderInstance) Destroy() {
	device := core.logical_device.handle
	if device == nil {
		return
	}
	core.device_idle()

	for i := 0; i < FrameOverlap; i++ {
		if core.frames[i] != nil {
			core.frames[i].destroy(device)
			core.frames[i] = nil
		}
	}
	if core.shaders != nil {
		core.shaders.Destroy(device)
	}
	core.swapchain.Destroy()
	core.main_deletion_queue.Destroy()
	core.display.Destroy(core.instance)
	vk.DestroyDevice(device, nil)
	core.logical_device.handle = nil
}
