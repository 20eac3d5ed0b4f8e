package renderer

import (
	"fmt"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

/**
 * @brief A mapped upload heap buffer holding Count elements. Constant buffer
 * elements are padded to the 256 byte placement alignment.
 */
type UploadBuffer struct {
	name            string
	buffer          Buffer
	count           int
	elementByteSize uint32
}

func NewUploadBuffer(device Device, name string, count int, elementSize uint32, isConstantBuffer bool) (*UploadBuffer, error) {
	stride := elementSize
	if isConstantBuffer {
		stride = metadata.CalcConstantBufferByteSize(elementSize)
	}
	buf, err := device.CreateUploadBuffer(name, uint64(stride)*uint64(count))
	if err != nil {
		err = fmt.Errorf("%w: creating upload buffer %s: %v", core.ErrNativeCall, name, err)
		core.LogError("%s", err)
		return nil, err
	}
	return &UploadBuffer{
		name:            name,
		buffer:          buf,
		count:           count,
		elementByteSize: stride,
	}, nil
}

// CopyData writes data at the start of element i.
func (u *UploadBuffer) CopyData(i int, data []byte) error {
	if i < 0 || i >= u.count || uint32(len(data)) > u.elementByteSize {
		return fmt.Errorf("%w: %s element %d of %d, %d bytes into %d", core.ErrConstantBufferOverflow,
			u.name, i, u.count, len(data), u.elementByteSize)
	}
	return u.buffer.Write(uint64(i)*uint64(u.elementByteSize), data)
}

// Address is the GPU address of element i.
func (u *UploadBuffer) Address(i int) metadata.GPUVirtualAddress {
	return u.buffer.GPUVirtualAddress() + metadata.GPUVirtualAddress(uint64(i)*uint64(u.elementByteSize))
}

func (u *UploadBuffer) BaseAddress() metadata.GPUVirtualAddress {
	return u.buffer.GPUVirtualAddress()
}

func (u *UploadBuffer) ElementByteSize() uint32 {
	return u.elementByteSize
}

func (u *UploadBuffer) Count() int {
	return u.count
}
