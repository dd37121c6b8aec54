package embervk

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

//Fake non-dispatchable handles for device-free tests. The binding defines
//these as C pointer types on 64-bit platforms, so distinct fakes are minted
//from small integers via unsafe.Pointer, never dereferenced, only compared.
func testPool(n uint64) vk.DescriptorPool {
	return vk.DescriptorPool(unsafe.Pointer(uintptr(n)))
}

func testSet(n uint64) vk.DescriptorSet {
	return vk.DescriptorSet(unsafe.Pointer(uintptr(n)))
}

func testFence(n uint64) vk.Fence {
	return vk.Fence(unsafe.Pointer(uintptr(n)))
}
