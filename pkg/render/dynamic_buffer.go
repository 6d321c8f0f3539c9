package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Uniform data must start on a 256-byte boundary on most adapters.
const uniformAlignment = 256

const dynamicBufferChunkSize = 1 << 20

// BufferSlice is one allocation inside a dynamic buffer chunk. It is
// valid only for the frame it was pushed in; Recall expires it.
type BufferSlice struct {
	Buffer hal.Buffer
	Offset uint64
	Size   uint64

	frame uint64
}

type dynamicBufferChunk struct {
	buffer hal.Buffer
	size   uint64
	used   uint64
}

// DynamicBuffer hands out transient vertex and uniform slices for one
// frame. Allocations live until Recall, which makes every chunk
// reusable for the next frame.
type DynamicBuffer struct {
	device hal.Device
	queue  hal.Queue

	active []*dynamicBufferChunk
	free   []*dynamicBufferChunk

	frame       uint64
	frameBytes  uint64
	frameAllocs int
}

// NewDynamicBuffer creates an empty per-frame allocator.
func NewDynamicBuffer(device hal.Device, queue hal.Queue) *DynamicBuffer {
	return &DynamicBuffer{device: device, queue: queue}
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}

func (b *DynamicBuffer) chunkFor(size uint64) (*dynamicBufferChunk, error) {
	for _, c := range b.active {
		if c.size-alignUp(c.used, uniformAlignment) >= size {
			return c, nil
		}
	}
	for i, c := range b.free {
		if c.size >= size {
			b.free = append(b.free[:i], b.free[i+1:]...)
			c.used = 0
			b.active = append(b.active, c)
			return c, nil
		}
	}

	chunkSize := uint64(dynamicBufferChunkSize)
	if size > chunkSize {
		chunkSize = alignUp(size, uniformAlignment)
	}
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("dynamic_buffer_chunk_%d", len(b.active)+len(b.free)),
		Size:  chunkSize,
		Usage: gputypes.BufferUsageCopyDst | gputypes.BufferUsageVertex | gputypes.BufferUsageUniform,
	})
	if err != nil {
		return nil, fmt.Errorf("create dynamic buffer chunk: %w", err)
	}
	c := &dynamicBufferChunk{buffer: buf, size: chunkSize}
	b.active = append(b.active, c)
	return c, nil
}

// Push uploads data and returns the slice holding it. The offset is
// aligned for uniform binding, which also satisfies vertex alignment.
func (b *DynamicBuffer) Push(data []byte) (BufferSlice, error) {
	size := alignUp(uint64(len(data)), 4)
	c, err := b.chunkFor(size)
	if err != nil {
		return BufferSlice{}, err
	}
	offset := alignUp(c.used, uniformAlignment)
	c.used = offset + size

	b.queue.WriteBuffer(c.buffer, offset, data)
	b.frameBytes += size
	b.frameAllocs++

	return BufferSlice{Buffer: c.buffer, Offset: offset, Size: size, frame: b.frame}, nil
}

// Holds reports whether the slice was pushed in the current frame.
// A stale slice points into memory the next frame will overwrite.
func (b *DynamicBuffer) Holds(s BufferSlice) bool {
	return s.frame == b.frame
}

// Recall returns all chunks to the free list. Call it after the frame's
// command buffers are submitted.
func (b *DynamicBuffer) Recall() {
	b.free = append(b.free, b.active...)
	b.active = b.active[:0]
	b.frame++
	b.frameBytes = 0
	b.frameAllocs = 0
}

// FrameStats reports the bytes and allocation count of the current
// frame.
func (b *DynamicBuffer) FrameStats() (bytes uint64, allocs int) {
	return b.frameBytes, b.frameAllocs
}

// Destroy releases every chunk.
func (b *DynamicBuffer) Destroy() {
	for _, c := range append(b.active, b.free...) {
		b.device.DestroyBuffer(c.buffer)
	}
	b.active = nil
	b.free = nil
}
