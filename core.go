package embervk

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

//BaseCore is the engine entry point managing the vulkan instance layer and
//holding the named render instances. Loggers are owned by the core and passed
//down at construction so nothing in the frame path reaches for process-wide
//state.
type BaseCore struct {
	display    *CoreDisplay
	core_props map[string]*Usage
	name       string
	info_log   *log.Logger
	error_log  *log.Logger
	warn_log   *log.Logger

	instance  vk.Instance
	instances map[string]*CoreRenderInstance

	shaders *CoreShader
}

//NewBaseCore instantiates the core against an existing glfw window. Log sinks
//default to append-mode files in the working directory, pass SetLogWriters
//afterward to redirect.
func NewBaseCore(usages map[string]*Usage, appName string, window *glfw.Window) *BaseCore {
	var core BaseCore

	info_file, err := os.OpenFile("info_log.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatal(err)
	}
	error_file, err := os.OpenFile("error_log.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatal(err)
	}
	warn_file, err := os.OpenFile("warn_log.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatal(err)
	}

	core.core_props = usages
	core.info_log = log.New(info_file, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	core.error_log = log.New(error_file, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	core.warn_log = log.New(warn_file, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
	core.name = appName
	core.instances = make(map[string]*CoreRenderInstance, 4)

	if window != nil && usages["Config"] != nil && usages["Config"].String_props[PropDisplay] == "Window" {
		core.display = NewCoreDisplay(window)
	}

	return &core
}

//SetLogWriters redirects the three log sinks
func (base *BaseCore) SetLogWriters(info, warn, errs io.Writer) {
	if info != nil {
		base.info_log = log.New(info, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	}
	if warn != nil {
		base.warn_log = log.New(warn, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
	}
	if errs != nil {
		base.error_log = log.New(errs, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	}
}

//SetShaderPaths registers the SPIR-V sources compiled into the default
//program when a graphics instance is created
func (base *BaseCore) SetShaderPaths(paths map[string]int) {
	base.shaders = NewCoreShader(paths, 2)
}

//CreateGraphicsInstance creates the vulkan instance if needed and attaches a
//named render instance to a graphics capable device
func (base *BaseCore) CreateGraphicsInstance(instanceName string) error {

	if base.display == nil {
		return fmt.Errorf("No display attached, graphics instances require a window configured with the %s prop\n", PropDisplay)
	}

	config := base.core_props["Config"]

	var layers []string
	if config == nil || config.Bool_props[PropValidation] {
		layers = []string{"VK_LAYER_KHRONOS_validation"}
	}
	deviceExtensions := []string{"VK_KHR_swapchain"}

	required := base.display.window.GetRequiredInstanceExtensions()
	inst_ext := NewBaseInstanceExtensions([]string{}, required)
	layer_ext := NewBaseLayerExtensions(layers)

	if base.instance == nil {
		var instance vk.Instance
		ret := vk.CreateInstance(&vk.InstanceCreateInfo{
			SType: vk.StructureTypeInstanceCreateInfo,
			PApplicationInfo: &vk.ApplicationInfo{
				SType:              vk.StructureTypeApplicationInfo,
				ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
				ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
				PApplicationName:   safeString(instanceName),
				PEngineName:        safeString(base.name),
			},
			EnabledExtensionCount:   uint32(len(inst_ext.GetExtensions())),
			PpEnabledExtensionNames: inst_ext.GetExtensions(),
			EnabledLayerCount:       uint32(len(layer_ext.GetExtensions())),
			PpEnabledLayerNames:     layer_ext.GetExtensions(),
		}, nil, &instance)
		if isError(ret) {
			return NewError(ret)
		}
		base.instance = instance
		vk.InitInstance(instance)
	}

	instance, err := NewCoreRenderInstance(base.instance, instanceName, inst_ext,
		layer_ext, deviceExtensions, base.display, base.shaders, config)
	if err != nil {
		base.error_log.Print(err)
		return err
	}
	instance.SetLoggers(base.info_log, base.error_log)
	base.instances[instanceName] = instance
	return nil
}

func (base *BaseCore) GetInstance(name string) *CoreRenderInstance {
	return base.instances[name]
}

//Run drives the named instance's frame loop until the window closes or a
//frame reports a fatal condition. Per the error contract only this driver
//decides between aborting a frame and halting, repeated failures are fatal
//rather than silently degraded.
func (base *BaseCore) Run(instanceName string) error {
	instance := base.instances[instanceName]
	window := base.display.window

	for !window.ShouldClose() {
		if err := instance.RunFrame(); err != nil {
			base.error_log.Printf("frame loop halted: %v", err)
			return err
		}
		glfw.PollEvents()
	}
	return nil
}

//Destroy tears down every render instance then the vulkan instance
func (base *BaseCore) Destroy() {
	for name, instance := range base.instances {
		instance.Destroy()
		delete(base.instances, name)
	}
	if base.instance != nil {
		vk.DestroyInstance(base.instance, nil)
		base.instance = nil
	}
}
