package embervk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

//fakePools stands in for the device side of the allocator. Pools are opaque
//counters with a fixed capacity that reset restores.
type fakePools struct {
	capacity   map[vk.DescriptorPool]uint32
	remaining  map[vk.DescriptorPool]uint32
	created    []uint32
	allocCalls int
	resets     int
	destroys   int
	nextHandle uint64
	failAlloc  vk.Result
}

func newFakePools() *fakePools {
	return &fakePools{
		capacity:  make(map[vk.DescriptorPool]uint32),
		remaining: make(map[vk.DescriptorPool]uint32),
	}
}

func (f *fakePools) install(d *DescriptorAllocator) {
	d.createPool = func(maxSets uint32, ratios []PoolSizeRatio) (vk.DescriptorPool, error) {
		f.nextHandle++
		pool := testPool(f.nextHandle)
		f.capacity[pool] = maxSets
		f.remaining[pool] = maxSets
		f.created = append(f.created, maxSets)
		return pool, nil
	}
	d.allocSet = func(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, vk.Result) {
		f.allocCalls++
		if f.failAlloc != vk.Success {
			return vk.NullDescriptorSet, f.failAlloc
		}
		if f.remaining[pool] == 0 {
			return vk.NullDescriptorSet, vk.ErrorOutOfPoolMemory
		}
		f.remaining[pool]--
		f.nextHandle++
		return testSet(f.nextHandle), vk.Success
	}
	d.resetPool = func(pool vk.DescriptorPool) {
		f.resets++
		f.remaining[pool] = f.capacity[pool]
	}
	d.destroyPool = func(pool vk.DescriptorPool) {
		f.destroys++
	}
}

var testRatios = []PoolSizeRatio{
	{Type: vk.DescriptorTypeUniformBuffer, Ratio: 1},
}

func TestDescriptorAllocatorInit(t *testing.T) {
	var alloc DescriptorAllocator
	fake := newFakePools()
	fake.install(&alloc)

	require.NoError(t, alloc.Init(nil, 8, testRatios))
	assert.Equal(t, []uint32{8}, fake.created, "first pool sized to the requested capacity")
	assert.Equal(t, uint32(12), alloc.setsPerPool, "next pool pre-grown by half")
	assert.Len(t, alloc.ready, 1)
	assert.Empty(t, alloc.exhausted)
}

func TestGrowSets(t *testing.T) {
	assert.Equal(t, uint32(15), growSets(10))
	assert.Equal(t, uint32(22), growSets(15))
	assert.Equal(t, uint32(MaxSetsPerPool), growSets(4000))
	assert.Equal(t, uint32(MaxSetsPerPool), growSets(MaxSetsPerPool))
}

func TestDescriptorAllocatorGrowsOnExhaustion(t *testing.T) {
	var alloc DescriptorAllocator
	fake := newFakePools()
	fake.install(&alloc)
	require.NoError(t, alloc.Init(nil, 10, testRatios))

	//the 11th allocation overflows the initial pool and forces a grown one
	for i := 0; i < 11; i++ {
		set, err := alloc.Allocate(vk.NullDescriptorSetLayout)
		require.NoError(t, err, "allocation %d", i)
		assert.NotEqual(t, vk.NullDescriptorSet, set, "allocation %d", i)
	}

	assert.Equal(t, []uint32{10, 15}, fake.created)
	assert.Equal(t, uint32(22), alloc.setsPerPool)
	assert.Len(t, alloc.exhausted, 1)
	assert.Len(t, alloc.ready, 1)
}

func TestDescriptorAllocatorSingleRetry(t *testing.T) {
	var alloc DescriptorAllocator
	fake := newFakePools()
	fake.install(&alloc)
	require.NoError(t, alloc.Init(nil, 4, testRatios))

	fake.failAlloc = vk.ErrorOutOfPoolMemory
	fake.allocCalls = 0

	_, err := alloc.Allocate(vk.NullDescriptorSetLayout)
	assert.ErrorIs(t, err, ErrDescriptorExhausted)
	assert.Equal(t, 2, fake.allocCalls, "exactly one retry against a fresh pool")
	assert.Empty(t, alloc.ready)
	assert.Len(t, alloc.exhausted, 2)
}

func TestDescriptorAllocatorFragmentedPoolRetry(t *testing.T) {
	var alloc DescriptorAllocator
	fake := newFakePools()
	fake.install(&alloc)
	require.NoError(t, alloc.Init(nil, 4, testRatios))

	//fragmentation on the first attempt recovers through the fresh pool
	first := true
	inner := alloc.allocSet
	alloc.allocSet = func(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, vk.Result) {
		if first {
			first = false
			return vk.NullDescriptorSet, vk.ErrorFragmentedPool
		}
		return inner(pool, layout)
	}

	set, err := alloc.Allocate(vk.NullDescriptorSetLayout)
	require.NoError(t, err)
	assert.NotEqual(t, vk.NullDescriptorSet, set)
	assert.Len(t, alloc.exhausted, 1)
}

func TestDescriptorAllocatorFatalResultNotRetried(t *testing.T) {
	var alloc DescriptorAllocator
	fake := newFakePools()
	fake.install(&alloc)
	require.NoError(t, alloc.Init(nil, 4, testRatios))

	fake.failAlloc = vk.ErrorOutOfDeviceMemory
	fake.allocCalls = 0

	_, err := alloc.Allocate(vk.NullDescriptorSetLayout)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDescriptorExhausted)
	assert.Equal(t, 1, fake.allocCalls)
}

func TestDescriptorAllocatorClearPools(t *testing.T) {
	var alloc DescriptorAllocator
	fake := newFakePools()
	fake.install(&alloc)
	require.NoError(t, alloc.Init(nil, 2, testRatios))

	for i := 0; i < 3; i++ {
		_, err := alloc.Allocate(vk.NullDescriptorSetLayout)
		require.NoError(t, err)
	}
	require.Len(t, alloc.exhausted, 1)
	require.Len(t, alloc.ready, 1)

	alloc.ClearPools()
	assert.Equal(t, 2, fake.resets, "every pool reset exactly once")
	assert.Empty(t, alloc.exhausted)
	assert.Len(t, alloc.ready, 2, "pool count preserved across clears")

	//a cleared allocator serves from recycled capacity without new pools
	created := len(fake.created)
	_, err := alloc.Allocate(vk.NullDescriptorSetLayout)
	require.NoError(t, err)
	assert.Equal(t, created, len(fake.created))

	alloc.ClearPools()
	alloc.ClearPools()
	assert.Empty(t, alloc.exhausted)
	assert.Len(t, alloc.ready, 2)
}

func TestDescriptorAllocatorDestroyPools(t *testing.T) {
	var alloc DescriptorAllocator
	fake := newFakePools()
	fake.install(&alloc)
	require.NoError(t, alloc.Init(nil, 2, testRatios))

	for i := 0; i < 3; i++ {
		_, err := alloc.Allocate(vk.NullDescriptorSetLayout)
		require.NoError(t, err)
	}

	alloc.DestroyPools()
	assert.Equal(t, 2, fake.destroys)
	assert.Empty(t, alloc.ready)
	assert.Empty(t, alloc.exhausted)
}
