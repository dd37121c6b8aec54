package embervk

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

//CoreDisplay owns the native window binding and the presentation surface
//state derived from it, the current surface handle, pixel format, depth
//format, extent and viewport. Surface state is rebuilt independently of frame
//slot lifetime whenever the output size changes.
type CoreDisplay struct {
	window         *glfw.Window
	extent         vk.Extent2D
	viewport       vk.Viewport
	surface_format vk.SurfaceFormat
	depth_format   vk.Format
	surface        vk.Surface
}

//NewCoreDisplay wraps a glfw window, the surface handle is created lazily
//against the instance
func NewCoreDisplay(window *glfw.Window) *CoreDisplay {
	return &CoreDisplay{window: window}
}

//CreateSurface creates (or returns) the vulkan surface for the wrapped window
func (core *CoreDisplay) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	if core.surface != vk.NullSurface {
		return core.surface, nil
	}
	surfPtr, err := core.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("Failed to create vulkan window surface: %w", err)
	}
	core.surface = vk.SurfaceFromPointer(surfPtr)
	return core.surface, nil
}

func (core *CoreDisplay) Surface() vk.Surface {
	return core.surface
}

//GetSize reports the current framebuffer size of the window
func (core *CoreDisplay) GetSize() (int, int) {
	return core.window.GetSize()
}

func (core *CoreDisplay) Extent() vk.Extent2D {
	return core.extent
}

func (core *CoreDisplay) SurfaceFormat() vk.SurfaceFormat {
	return core.surface_format
}

//Destroy releases the surface, the window itself belongs to the caller
func (core *CoreDisplay) Destroy(instance vk.Instance) {
	if core.surface != vk.NullSurface {
		vk.DestroySurface(instance, core.surface, nil)
		core.surface = vk.NullSurface
	}
}
