package test

import (
	"log"
	"runtime"
	"testing"

	"github.com/andewx/embervk"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

const (
	WIDTH  = 500
	HEIGHT = 500
)

//TestRender drives the full frame loop against a real device and window.
//Requires a vulkan capable display environment, skipped otherwise.
func TestRender(t *testing.T) {

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		t.Skipf("glfw unavailable: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())

	if err := vk.Init(); err != nil {
		t.Skipf("vulkan unavailable: %v", err)
	}

	log.Printf("Creating Vulkan Instance...\n")

	window, errW := glfw.CreateWindow(WIDTH, HEIGHT, "Vulkan", nil, nil)
	if errW != nil {
		t.Skipf("no display: %v", errW)
	}

	config := embervk.NewUsage("Vulkan", 5)
	config.String_props[embervk.PropDisplay] = "Window"
	config.Int_props[embervk.PropFenceTimeoutMS] = 2000
	map_config := make(map[string]*embervk.Usage, 1)
	map_config["Config"] = config

	vulkan_core := embervk.NewBaseCore(map_config, "Vulkan App", window)
	defer vulkan_core.Destroy()

	vulkan_core.SetShaderPaths(map[string]int{
		"shaders/triangle.vert.spv": embervk.VERTEX,
		"shaders/triangle.frag.spv": embervk.FRAG,
	})
	if err := vulkan_core.CreateGraphicsInstance("Render"); err != nil {
		t.Fatalf("graphics instance: %v", err)
	}

	instance := vulkan_core.GetInstance("Render")
	instance.AddFrameCallback(func(cmd vk.CommandBuffer, frame *embervk.FrameData) {
		vk.CmdDraw(cmd, 3, 1, 0, 0)
	})

	if err := vulkan_core.Run("Render"); err != nil {
		t.Fatalf("frame loop: %v", err)
	}
}
