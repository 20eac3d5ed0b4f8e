package headless

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

func TestBuffersGetDistinctAlignedAddresses(t *testing.T) {
	d := NewDevice()
	a, err := d.CreateUploadBuffer("a", 100)
	require.NoError(t, err)
	b, err := d.CreateUploadBuffer("b", 100)
	require.NoError(t, err)
	assert.NotEqual(t, a.GPUVirtualAddress(), b.GPUVirtualAddress())
	assert.Zero(t, uint64(b.GPUVirtualAddress())%addressAlignment)
}

func TestBufferWriteBounds(t *testing.T) {
	d := NewDevice()
	buf, err := d.CreateUploadBuffer("cb", 16)
	require.NoError(t, err)
	require.NoError(t, buf.Write(8, []byte{1, 2, 3, 4}))
	assert.Error(t, buf.Write(14, []byte{1, 2, 3}))

	hb, ok := d.Buffer("cb")
	require.True(t, ok)
	assert.Equal(t, 1, hb.Writes())
	assert.Equal(t, []byte{1, 2, 3, 4}, hb.Bytes(8, 4))
	assert.Equal(t, 1, d.Stats().BufferWrites)
}

func TestFailNext(t *testing.T) {
	d := NewDevice()
	boom := errors.New("device removed")
	d.FailNext = boom
	_, err := d.CreateUploadBuffer("x", 4)
	assert.ErrorIs(t, err, boom)
	_, err = d.CreateUploadBuffer("x", 4)
	assert.NoError(t, err)
}

func TestHeapVisibility(t *testing.T) {
	d := NewDevice()
	srv, err := d.CreateDescriptorHeap(metadata.DescriptorHeapTypeCBVSRVUAV, 8, true)
	require.NoError(t, err)
	rtv, err := d.CreateDescriptorHeap(metadata.DescriptorHeapTypeRTV, 8, false)
	require.NoError(t, err)
	assert.NotZero(t, srv.GPUStart())
	assert.Zero(t, rtv.GPUStart())
	assert.NotEqual(t, srv.CPUStart(), rtv.CPUStart())
}

func TestQueueSignal(t *testing.T) {
	d := NewDevice()
	f, err := d.CreateFence(0)
	require.NoError(t, err)

	require.NoError(t, d.CommandQueue().Signal(f, 1))
	assert.Equal(t, uint64(0), f.CompletedValue())

	d.queue.Immediate = true
	require.NoError(t, d.CommandQueue().Signal(f, 2))
	assert.Equal(t, uint64(2), f.CompletedValue())
}

func TestExecuteRequiresClosedList(t *testing.T) {
	d := NewDevice()
	alloc, err := d.CreateCommandAllocator()
	require.NoError(t, err)
	cl, err := d.CreateCommandList(alloc)
	require.NoError(t, err)
	assert.Error(t, d.CommandQueue().Execute(cl))
	require.NoError(t, cl.Close())
	assert.NoError(t, d.CommandQueue().Execute(cl))
}

func TestRootSignatureRejectsGarbage(t *testing.T) {
	d := NewDevice()
	_, err := d.CreateRootSignature([]byte("nope"))
	assert.Error(t, err)
	assert.Equal(t, 0, d.Stats().RootSignatures)
}
