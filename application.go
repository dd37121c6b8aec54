package embervk

import (
	vk "github.com/vulkan-go/vulkan"
)

//RenderCallback is a per-frame draw command producer owned by the rendering
//or material subsystem. The engine invokes callbacks in registration order
//inside the primary renderpass, handing them the slot's command buffer and
//the slot itself so per-frame descriptor sets and deferred deletions attach
//to the correct fence. State a callback needs must be captured at
//registration, never read from package globals.
type RenderCallback func(cmd vk.CommandBuffer, frame *FrameData)

//SurfaceProvider is the windowing collaborator, CoreDisplay is the glfw
//backed implementation
type SurfaceProvider interface {
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	Extent() vk.Extent2D
	Destroy(instance vk.Instance)
}

//Drawable is the capability contract for scene content integrated with the
//render callback set, draw against the recording context rather than
//subclassing engine types
type Drawable interface {
	Draw(cmd vk.CommandBuffer, frame *FrameData)
}

//DrawCallback adapts a Drawable into a RenderCallback
func DrawCallback(d Drawable) RenderCallback {
	return func(cmd vk.CommandBuffer, frame *FrameData) {
		d.Draw(cmd, frame)
	}
}
