package embervk

import (
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

//Extensions is the common surface of the instance, device and layer extension
//sets below
type Extensions interface {
	HasRequired() (bool, []string)
	HasWanted() (bool, []string)
	GetExtensions() []string
}

//BaseInstanceExtensions resolves the wanted and required instance extensions
//against what the platform actually exposes
type BaseInstanceExtensions struct {
	wanted    []string
	required  []string
	available []string
}

func NewBaseInstanceExtensions(wanted []string, required []string) *BaseInstanceExtensions {
	var e BaseInstanceExtensions
	e.wanted = wanted
	e.required = required
	e.available, _ = InstanceExtensions()
	return &e
}

func (e *BaseInstanceExtensions) HasRequired() (bool, []string) {
	return hasAll(e.available, e.required)
}

func (e *BaseInstanceExtensions) HasWanted() (bool, []string) {
	return hasAll(e.available, e.wanted)
}

//GetExtensions returns the enabled set, required plus whichever wanted
//extensions the platform supports, null terminated for the C ABI
func (e *BaseInstanceExtensions) GetExtensions() []string {
	supported, _ := checkExisting(e.available, e.wanted)
	return safeStrings(dedupe(append(supported, e.required...)))
}

//BaseDeviceExtensions resolves wanted and required device extensions against
//one physical device
type BaseDeviceExtensions struct {
	wanted    []string
	required  []string
	available []string
}

func NewBaseDeviceExtensions(wanted []string, required []string, gpu vk.PhysicalDevice) *BaseDeviceExtensions {
	var e BaseDeviceExtensions
	e.wanted = wanted
	e.required = required
	e.available, _ = DeviceExtensions(gpu)
	return &e
}

func (e *BaseDeviceExtensions) HasRequired() (bool, []string) {
	return hasAll(e.available, e.required)
}

func (e *BaseDeviceExtensions) HasWanted() (bool, []string) {
	return hasAll(e.available, e.wanted)
}

func (e *BaseDeviceExtensions) GetExtensions() []string {
	supported, _ := checkExisting(e.available, e.wanted)
	return safeStrings(dedupe(append(supported, e.required...)))
}

//BaseLayerExtensions resolves wanted validation layers against the platform
type BaseLayerExtensions struct {
	wanted    []string
	available []string
}

func NewBaseLayerExtensions(wanted []string) *BaseLayerExtensions {
	var e BaseLayerExtensions
	e.wanted = wanted
	e.available, _ = ValidationLayers()
	return &e
}

func (e *BaseLayerExtensions) HasRequired() (bool, []string) {
	return true, nil
}

func (e *BaseLayerExtensions) HasWanted() (bool, []string) {
	return hasAll(e.available, e.wanted)
}

func (e *BaseLayerExtensions) GetExtensions() []string {
	supported, _ := checkExisting(e.available, e.wanted)
	return safeStrings(supported)
}

//hasAll reports whether every name in want is present in have, along with the
//missing names
func hasAll(have, want []string) (bool, []string) {
	var missing []string
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.TrimRight(h, "\x00") == strings.TrimRight(w, "\x00") {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, w)
		}
	}
	return len(missing) == 0, missing
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
