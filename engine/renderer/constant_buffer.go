package renderer

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

/**
 * @brief A CPU shadow of a shader constant buffer with one upload slot per
 * frame in flight. Every write marks the buffer dirty for FrameCount frames so
 * each slot receives the new contents once.
 */
type ConstantBuffer struct {
	name       string
	data       []byte
	upload     *UploadBuffer
	frameCount int
	dirty      int
}

func NewConstantBuffer(device Device, name string, size uint32, frameCount int) (*ConstantBuffer, error) {
	upload, err := NewUploadBuffer(device, name, frameCount, size, true)
	if err != nil {
		return nil, err
	}
	return &ConstantBuffer{
		name:       name,
		data:       make([]byte, size),
		upload:     upload,
		frameCount: frameCount,
		dirty:      frameCount,
	}, nil
}

func (c *ConstantBuffer) Name() string {
	return c.name
}

// Size is the reflected size in bytes.
func (c *ConstantBuffer) Size() uint32 {
	return uint32(len(c.data))
}

func (c *ConstantBuffer) Upload() *UploadBuffer {
	return c.upload
}

func (c *ConstantBuffer) Dirty() int {
	return c.dirty
}

func (c *ConstantBuffer) MarkDirty() {
	c.dirty = c.frameCount
}

// Set encodes a fixed-size value at offset 0.
func (c *ConstantBuffer) Set(v any) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("encoding %s: %w", c.name, err)
	}
	return c.Write(0, buf.Bytes())
}

// Write copies b at offset.
func (c *ConstantBuffer) Write(offset uint32, b []byte) error {
	if uint64(offset)+uint64(len(b)) > uint64(len(c.data)) {
		return fmt.Errorf("%w: %s is %d bytes, write of %d at %d", core.ErrConstantBufferOverflow,
			c.name, len(c.data), len(b), offset)
	}
	copy(c.data[offset:], b)
	c.MarkDirty()
	return nil
}

// Bytes returns a copy of the contents.
func (c *ConstantBuffer) Bytes() []byte {
	return append([]byte(nil), c.data...)
}

// Ref returns the backing slice. The caller may mutate it, so the buffer is marked dirty.
func (c *ConstantBuffer) Ref() []byte {
	c.MarkDirty()
	return c.data
}

// Decode reads a fixed-size value from offset 0.
func (c *ConstantBuffer) Decode(out any) error {
	if err := binary.Read(bytes.NewReader(c.data), binary.LittleEndian, out); err != nil {
		return fmt.Errorf("decoding %s: %w", c.name, err)
	}
	return nil
}

// Update uploads the contents into the frame's slot when dirty. It reports
// whether an upload happened.
func (c *ConstantBuffer) Update(frame int) (bool, error) {
	if c.dirty <= 0 {
		return false, nil
	}
	if err := c.upload.CopyData(frame, c.data); err != nil {
		return false, err
	}
	c.dirty--
	return true, nil
}

// Address is the GPU address of the frame's slot.
func (c *ConstantBuffer) Address(frame int) metadata.GPUVirtualAddress {
	return c.upload.BaseAddress() + metadata.GPUVirtualAddress(frame)*metadata.GPUVirtualAddress(metadata.CalcConstantBufferByteSize(c.Size()))
}

// Load decodes the buffer as T without marking it dirty.
func Load[T any](c *ConstantBuffer) (T, error) {
	var v T
	err := c.Decode(&v)
	return v, err
}

// Modify decodes the buffer as T, lets fn change it and stores the result.
func Modify[T any](c *ConstantBuffer, fn func(*T)) error {
	v, err := Load[T](c)
	if err != nil {
		return err
	}
	fn(&v)
	return c.Set(&v)
}
