package embervk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAllocator struct {
	destroyed bool
}

func (s *stubAllocator) Destroy() { s.destroyed = true }

func TestResourceKindString(t *testing.T) {
	assert.Equal(t, "fence", KindFence.String())
	assert.Equal(t, "descriptor-set-layout", KindDescriptorSetLayout.String())
	assert.Equal(t, "cleanup", KindCleanup.String())
	assert.Equal(t, "ResourceKind(99)", ResourceKind(99).String())
}

func TestResourceDestroyUnknownKindPanics(t *testing.T) {
	res := Resource{kind: ResourceKind(99)}
	assert.Panics(t, func() { res.destroy(nil) })
}

func TestAllocatorResourceDestroy(t *testing.T) {
	stub := &stubAllocator{}
	res := AllocatorResource(stub)
	assert.Equal(t, KindAllocator, res.Kind())

	res.destroy(nil)
	assert.True(t, stub.destroyed)
}

func TestCleanupResourceDestroy(t *testing.T) {
	ran := false
	res := CleanupResource(func() { ran = true })
	res.destroy(nil)
	assert.True(t, ran)
}
