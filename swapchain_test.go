package embervk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestSelectDepthFormatPrecisionOrder(t *testing.T) {
	all := func(format vk.Format) bool { return true }
	assert.Equal(t, vk.FormatD32SfloatS8Uint, selectDepthFormat(all))

	noStencil := func(format vk.Format) bool {
		return format == vk.FormatD32Sfloat
	}
	assert.Equal(t, vk.FormatD32Sfloat, selectDepthFormat(noStencil))
}

func TestSelectDepthFormatFallback(t *testing.T) {
	none := func(format vk.Format) bool { return false }
	assert.Equal(t, vk.FormatD16Unorm, selectDepthFormat(none))
}
