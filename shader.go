package embervk

import (
	"fmt"
	"os"

	vk "github.com/vulkan-go/vulkan"
)

const (
	VERTEX  = 0
	FRAG    = 1
	COMPUTE = 2
)

//CoreShader maps SPIR-V file paths to compiled shader modules grouped into
//named programs
type CoreShader struct {
	shader_paths    map[string]int //Key: shader path, Value: shader stage
	shader_programs map[string]*ShaderProgram
}

type ShaderProgram struct {
	vertex_module   vk.ShaderModule
	fragment_module vk.ShaderModule
}

func NewCoreShader(paths map[string]int, numPrograms int) *CoreShader {
	var core CoreShader
	core.shader_paths = paths
	core.shader_programs = make(map[string]*ShaderProgram, numPrograms)
	return &core
}

//Program returns a previously built program by name
func (core *CoreShader) Program(name string) (*ShaderProgram, bool) {
	pg, ok := core.shader_programs[name]
	return pg, ok
}

//CreateProgram compiles every registered path into the named program
func (core *CoreShader) CreateProgram(name string, device vk.Device) error {
	var pg ShaderProgram
	for path, stage := range core.shader_paths {
		module, err := loadShaderModule(device, path)
		if err != nil {
			return err
		}
		switch stage {
		case VERTEX:
			pg.vertex_module = module
		case FRAG:
			pg.fragment_module = module
		}
	}
	core.shader_programs[name] = &pg
	return nil
}

//loadShaderModule reads SPIR-V byte code from disk into a shader module,
//vulkan expects uint32 words
func loadShaderModule(device vk.Device, path string) (vk.ShaderModule, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, fmt.Errorf("Unable to read shader file %s: %w", path, err)
	}

	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(buffer)),
		PCode:    sliceUint32(buffer),
	}, nil, &module)
	if isError(ret) {
		return vk.NullShaderModule, NewError(ret)
	}
	return module, nil
}

//Destroy releases every compiled module
func (core *CoreShader) Destroy(device vk.Device) {
	for _, pg := range core.shader_programs {
		if pg.vertex_module != vk.NullShaderModule {
			vk.DestroyShaderModule(device, pg.vertex_module, nil)
			pg.vertex_module = vk.NullShaderModule
		}
		if pg.fragment_module != vk.NullShaderModule {
			vk.DestroyShaderModule(device, pg.fragment_module, nil)
			pg.fragment_module = vk.NullShaderModule
		}
	}
}
