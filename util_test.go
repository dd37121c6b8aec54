package embervk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestSafeString(t *testing.T) {
	assert.Equal(t, "\x00", safeString(""))
	assert.Equal(t, "abc\x00", safeString("abc"))
	assert.Equal(t, "abc\x00", safeString("abc\x00"))
}

func TestCheckExisting(t *testing.T) {
	actual := []string{"VK_KHR_surface", "VK_KHR_swapchain"}

	existing, missing := checkExisting(actual, []string{"VK_KHR_swapchain"})
	assert.Equal(t, []string{"VK_KHR_swapchain"}, existing)
	assert.Zero(t, missing)

	existing, missing = checkExisting(actual, []string{"VK_KHR_swapchain", "VK_EXT_debug_utils"})
	assert.Equal(t, []string{"VK_KHR_swapchain"}, existing)
	assert.Equal(t, 1, missing)
}

func TestSliceUint32(t *testing.T) {
	words := sliceUint32([]byte{0x03, 0x02, 0x23, 0x07, 0xff, 0x00, 0x00, 0x00})
	assert.Len(t, words, 2)
	assert.Equal(t, uint32(0x07230203), words[0], "spir-v magic survives the cast")
}

func TestUsageIntOr(t *testing.T) {
	usage := NewUsage("render", 4)
	assert.Equal(t, 1000, usage.IntOr(PropFenceTimeoutMS, 1000))

	usage.Int_props[PropFenceTimeoutMS] = 250
	assert.Equal(t, 250, usage.IntOr(PropFenceTimeoutMS, 1000))
}

func TestDescriptorWriterAccumulates(t *testing.T) {
	var writer DescriptorWriter
	writer.WriteBuffer(0, vk.NullBuffer, 256, 0, vk.DescriptorTypeUniformBuffer)
	writer.WriteImage(1, vk.NullImageView, vk.NullSampler,
		vk.ImageLayoutShaderReadOnlyOptimal, vk.DescriptorTypeCombinedImageSampler)

	assert.Len(t, writer.writes, 2)
	assert.Equal(t, uint32(0), writer.writes[0].DstBinding)
	assert.Equal(t, uint32(1), writer.writes[1].DstBinding)

	writer.Clear()
	assert.Empty(t, writer.writes)
	assert.Empty(t, writer.bufferInfos)
	assert.Empty(t, writer.imageInfos)
}
