package embervk

import (
	vk "github.com/vulkan-go/vulkan"
)

//MaxSetsPerPool caps pool growth near the practical ceiling for a single
//descriptor pool
const MaxSetsPerPool = 4092

//PoolSizeRatio describes the per-kind capacity split applied to every pool the
//allocator creates. A pool created for N sets reserves N*Ratio descriptors of
//the given type
type PoolSizeRatio struct {
	Type  vk.DescriptorType
	Ratio float32
}

//DescriptorAllocator manages a growing collection of fixed-capacity descriptor
//pools. Pools that may still satisfy allocations sit in ready, pools that
//returned out-of-pool-memory or fragmented-pool sit in exhausted until the
//next ClearPools. Every owned pool shares the same ratio list and lives in
//exactly one of the two sets. Not thread-safe, each allocator is exclusively
//owned by one frame slot or by the engine.
type DescriptorAllocator struct {
	device      vk.Device
	ratios      []PoolSizeRatio
	ready       []vk.DescriptorPool
	exhausted   []vk.DescriptorPool
	setsPerPool uint32

	//low level pool calls, swapped by unit tests
	createPool  func(maxSets uint32, ratios []PoolSizeRatio) (vk.DescriptorPool, error)
	allocSet    func(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, vk.Result)
	resetPool   func(pool vk.DescriptorPool)
	destroyPool func(pool vk.DescriptorPool)
}

//Init creates the first pool sized maxSets per the ratio list and seeds the
//growth counter at maxSets * 1.5
func (d *DescriptorAllocator) Init(device vk.Device, maxSets uint32, ratios []PoolSizeRatio) error {
	d.device = device
	d.ratios = append(d.ratios[:0], ratios...)
	d.bindDeviceCalls()

	pool, err := d.createPool(maxSets, d.ratios)
	if err != nil {
		return err
	}
	d.setsPerPool = growSets(maxSets)
	d.ready = append(d.ready, pool)
	return nil
}

func (d *DescriptorAllocator) bindDeviceCalls() {
	if d.createPool == nil {
		d.createPool = d.vkCreatePool
	}
	if d.allocSet == nil {
		d.allocSet = d.vkAllocSet
	}
	if d.resetPool == nil {
		d.resetPool = d.vkResetPool
	}
	if d.destroyPool == nil {
		d.destroyPool = d.vkDestroyPool
	}
}

func growSets(sets uint32) uint32 {
	grown := uint32(float32(sets) * 1.5)
	if grown > MaxSetsPerPool {
		return MaxSetsPerPool
	}
	return grown
}

//getPool pops one ready pool, or creates a fresh one at the current growth
//size and advances the growth counter
func (d *DescriptorAllocator) getPool() (vk.DescriptorPool, error) {
	if n := len(d.ready); n > 0 {
		pool := d.ready[n-1]
		d.ready = d.ready[:n-1]
		return pool, nil
	}
	pool, err := d.createPool(d.setsPerPool, d.ratios)
	if err != nil {
		return vk.NullDescriptorPool, err
	}
	d.setsPerPool = growSets(d.setsPerPool)
	return pool, nil
}

//Allocate carves one descriptor set for the given layout. On a recoverable
//failure the current pool moves to exhausted and the allocation is retried
//exactly once with a fresh pool, a second failure returns
//ErrDescriptorExhausted. The pool that satisfied the allocation returns to
//ready.
func (d *DescriptorAllocator) Allocate(layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	pool, err := d.getPool()
	if err != nil {
		return vk.NullDescriptorSet, err
	}

	set, ret := d.allocSet(pool, layout)
	if recoverableAlloc(ret) {
		d.exhausted = append(d.exhausted, pool)

		pool, err = d.getPool()
		if err != nil {
			return vk.NullDescriptorSet, err
		}
		set, ret = d.allocSet(pool, layout)
		if recoverableAlloc(ret) {
			d.exhausted = append(d.exhausted, pool)
			return vk.NullDescriptorSet, ErrDescriptorExhausted
		}
	}
	if isError(ret) {
		d.ready = append(d.ready, pool)
		return vk.NullDescriptorSet, NewError(ret)
	}
	d.ready = append(d.ready, pool)
	return set, nil
}

func recoverableAlloc(ret vk.Result) bool {
	return ret == vk.ErrorOutOfPoolMemory || ret == vk.ErrorFragmentedPool
}

//ClearPools resets every owned pool to an empty-but-allocated state and moves
//all exhausted pools back to ready. This is the bulk fast path for dropping a
//frame's worth of short-lived sets in one call. Idempotent.
func (d *DescriptorAllocator) ClearPools() {
	for _, pool := range d.ready {
		d.resetPool(pool)
	}
	for _, pool := range d.exhausted {
		d.resetPool(pool)
		d.ready = append(d.ready, pool)
	}
	d.exhausted = d.exhausted[:0]
}

//DestroyPools destroys every pool in both sets
func (d *DescriptorAllocator) DestroyPools() {
	for _, pool := range d.ready {
		d.destroyPool(pool)
	}
	d.ready = nil
	for _, pool := range d.exhausted {
		d.destroyPool(pool)
	}
	d.exhausted = nil
}

func (d *DescriptorAllocator) vkCreatePool(maxSets uint32, ratios []PoolSizeRatio) (vk.DescriptorPool, error) {
	sizes := make([]vk.DescriptorPoolSize, len(ratios))
	for i, ratio := range ratios {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            ratio.Type,
			DescriptorCount: uint32(ratio.Ratio * float32(maxSets)),
		}
	}
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(d.device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &pool)
	if isError(ret) {
		return vk.NullDescriptorPool, NewError(ret)
	}
	return pool, nil
}

func (d *DescriptorAllocator) vkAllocSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, vk.Result) {
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}, &set)
	return set, ret
}

func (d *DescriptorAllocator) vkResetPool(pool vk.DescriptorPool) {
	vk.ResetDescriptorPool(d.device, pool, 0)
}

func (d *DescriptorAllocator) vkDestroyPool(pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(d.device, pool, nil)
}

//DescriptorWriter accumulates binding writes without touching any real
//descriptor set, UpdateSet applies every pending write to one set in a single
//batched call. Call Clear before reuse unless intentionally re-applying the
//same bindings to another set
type DescriptorWriter struct {
	writes      []vk.WriteDescriptorSet
	bufferInfos [][]vk.DescriptorBufferInfo
	imageInfos  [][]vk.DescriptorImageInfo
}

func (w *DescriptorWriter) WriteBuffer(binding uint32, buffer vk.Buffer, size, offset vk.DeviceSize, dtype vk.DescriptorType) {
	info := []vk.DescriptorBufferInfo{{
		Buffer: buffer,
		Offset: offset,
		Range:  size,
	}}
	w.bufferInfos = append(w.bufferInfos, info)
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  dtype,
		PBufferInfo:     info,
	})
}

func (w *DescriptorWriter) WriteImage(binding uint32, view vk.ImageView, sampler vk.Sampler, layout vk.ImageLayout, dtype vk.DescriptorType) {
	info := []vk.DescriptorImageInfo{{
		Sampler:     sampler,
		ImageView:   view,
		ImageLayout: layout,
	}}
	w.imageInfos = append(w.imageInfos, info)
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  dtype,
		PImageInfo:      info,
	})
}

func (w *DescriptorWriter) Clear() {
	w.writes = w.writes[:0]
	w.bufferInfos = w.bufferInfos[:0]
	w.imageInfos = w.imageInfos[:0]
}

//UpdateSet binds all pending entries to set in one call
func (w *DescriptorWriter) UpdateSet(device vk.Device, set vk.DescriptorSet) {
	if len(w.writes) == 0 {
		return
	}
	for i := range w.writes {
		w.writes[i].DstSet = set
	}
	vk.UpdateDescriptorSets(device, uint32(len(w.writes)), w.writes, 0, nil)
}
