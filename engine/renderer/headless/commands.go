package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// Command is one recorded call. Args holds the call arguments in order.
type Command struct {
	Op   string
	Args []any
}

func (c Command) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

type CommandList struct {
	Commands []Command
	closed   bool
}

func (l *CommandList) record(op string, args ...any) {
	l.Commands = append(l.Commands, Command{Op: op, Args: args})
}

// Ops returns the recorded operation names in order.
func (l *CommandList) Ops() []string {
	ops := make([]string, len(l.Commands))
	for i, c := range l.Commands {
		ops[i] = c.Op
	}
	return ops
}

// Find returns every recorded command with the given name.
func (l *CommandList) Find(op string) []Command {
	var out []Command
	for _, c := range l.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (l *CommandList) Reset(a renderer.CommandAllocator, initial renderer.PipelineState) error {
	l.Commands = nil
	l.closed = false
	return nil
}

func (l *CommandList) Close() error {
	if l.closed {
		return fmt.Errorf("command list already closed")
	}
	l.closed = true
	return nil
}

func (l *CommandList) SetDescriptorHeaps(heaps ...renderer.DescriptorHeap) {
	l.record("SetDescriptorHeaps", len(heaps))
}

func (l *CommandList) SetGraphicsRootSignature(rs renderer.RootSignature) {
	l.record("SetGraphicsRootSignature", rs)
}

func (l *CommandList) SetComputeRootSignature(rs renderer.RootSignature) {
	l.record("SetComputeRootSignature", rs)
}

func (l *CommandList) SetPipelineState(ps renderer.PipelineState) {
	l.record("SetPipelineState", ps)
}

func (l *CommandList) SetGraphicsRootConstantBufferView(slot uint32, addr metadata.GPUVirtualAddress) {
	l.record("SetGraphicsRootConstantBufferView", slot, addr)
}

func (l *CommandList) SetComputeRootConstantBufferView(slot uint32, addr metadata.GPUVirtualAddress) {
	l.record("SetComputeRootConstantBufferView", slot, addr)
}

func (l *CommandList) SetGraphicsRootDescriptorTable(slot uint32, base metadata.GPUDescriptorHandle) {
	l.record("SetGraphicsRootDescriptorTable", slot, base)
}

func (l *CommandList) SetComputeRootDescriptorTable(slot uint32, base metadata.GPUDescriptorHandle) {
	l.record("SetComputeRootDescriptorTable", slot, base)
}

func (l *CommandList) IASetPrimitiveTopology(t metadata.PrimitiveTopology) {
	l.record("IASetPrimitiveTopology", t)
}

func (l *CommandList) IASetVertexBuffers(startSlot uint32, views ...metadata.VertexBufferView) {
	l.record("IASetVertexBuffers", startSlot, views)
}

func (l *CommandList) IASetIndexBuffer(view metadata.IndexBufferView) {
	l.record("IASetIndexBuffer", view)
}

func (l *CommandList) ResourceBarrier(r renderer.Resource, before, after metadata.ResourceState) {
	l.record("ResourceBarrier", r.Desc().Name, before, after)
}

func (l *CommandList) OMSetRenderTargets(rtv metadata.CPUDescriptorHandle) {
	l.record("OMSetRenderTargets", rtv)
}

func (l *CommandList) ClearRenderTargetView(rtv metadata.CPUDescriptorHandle, color [4]float32) {
	l.record("ClearRenderTargetView", rtv, color)
}

// CopyResource copies the pixels of in-memory textures.
func (l *CommandList) CopyResource(dst, src renderer.Resource) {
	l.record("CopyResource", dst.Desc().Name, src.Desc().Name)
	if d, ok := dst.(*Texture); ok {
		if s, ok := src.(*Texture); ok {
			d.Pixels = append(d.Pixels[:0], s.Pixels...)
		}
	}
}

func (l *CommandList) DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	l.record("DrawIndexedInstanced", indexCount, instanceCount, startIndex, baseVertex, startInstance)
}

func (l *CommandList) DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32) {
	l.record("DrawInstanced", vertexCount, instanceCount, startVertex, startInstance)
}

func (l *CommandList) Dispatch(x, y, z uint32) {
	l.record("Dispatch", x, y, z)
}

/**
 * @brief A fence whose completed value only advances when the queue
 * completes work or when Wait is called.
 */
type Fence struct {
	mu        sync.Mutex
	completed uint64
	waits     int
}

func (f *Fence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Wait completes all work up to v.
func (f *Fence) Wait(v uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits++
	if f.completed < v {
		f.completed = v
	}
	return nil
}

// Waits is the number of Wait calls.
func (f *Fence) Waits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

func (f *Fence) complete(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed < v {
		f.completed = v
	}
}

type Queue struct {
	device   *Device
	mu       sync.Mutex
	executed int
	// Immediate makes Signal complete the fence value right away.
	Immediate bool
}

func (q *Queue) Execute(lists ...renderer.CommandList) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, l := range lists {
		if cl, ok := l.(*CommandList); ok && !cl.closed {
			return fmt.Errorf("executing an open command list")
		}
	}
	q.executed += len(lists)
	return nil
}

func (q *Queue) Signal(f renderer.Fence, v uint64) error {
	q.mu.Lock()
	immediate := q.Immediate
	q.mu.Unlock()
	if hf, ok := f.(*Fence); ok && immediate {
		hf.complete(v)
	}
	return nil
}

// Executed is the number of command lists submitted.
func (q *Queue) Executed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executed
}
