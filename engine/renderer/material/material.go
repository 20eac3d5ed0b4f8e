package material

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/shader"
)

type Option func(*options)

type options struct {
	drawState    *metadata.DrawState
	pipelineDesc *renderer.GraphicsPipelineDesc
	cbName       string
}

// WithDrawState sets the initial rasterizer, depth stencil and blend state.
func WithDrawState(s metadata.DrawState) Option {
	return func(o *options) { o.drawState = &s }
}

// WithPipelineDesc replaces the default output configuration of the pipeline.
func WithPipelineDesc(d renderer.GraphicsPipelineDesc) Option {
	return func(o *options) {
		c := d.Clone()
		o.pipelineDesc = &c
	}
}

// WithConstantBuffer names the per-material constant buffer of the program.
func WithConstantBuffer(name string) Option {
	return func(o *options) { o.cbName = name }
}

/**
 * @brief A program plus per-material constants, textures and fixed-function
 * state. The material owns its constant buffer and pipeline descriptor but
 * only references its program and textures.
 */
type Material struct {
	name     string
	ctx      *renderer.Context
	program  *shader.Program
	cbName   string
	cb       *renderer.ConstantBuffer
	textures map[string]*renderer.Texture
	psoDesc  renderer.GraphicsPipelineDesc
	pso      renderer.PipelineState
}

func New(ctx *renderer.Context, name string, program *shader.Program, opts ...Option) (*Material, error) {
	if program == nil {
		return nil, fmt.Errorf("%w: material %s has no program", core.ErrUnknownResource, name)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Material{
		name:     name,
		ctx:      ctx,
		program:  program,
		cbName:   o.cbName,
		textures: map[string]*renderer.Texture{},
	}

	if desc, ok := program.ConstantBuffer(o.cbName); ok && o.cbName != "" {
		cb, err := renderer.NewConstantBuffer(ctx.Device, name+"."+o.cbName, desc.Size, ctx.FrameCount)
		if err != nil {
			return nil, err
		}
		m.cb = cb
	} else if o.cbName != "" {
		core.LogWarn("material %s: program %s has no constant buffer %q", name, program.Name(), o.cbName)
	}

	for texName := range program.TextureSlots() {
		m.textures[texName] = nil
	}

	if o.pipelineDesc != nil {
		m.psoDesc = *o.pipelineDesc
	} else {
		m.psoDesc = renderer.DefaultGraphicsPipelineDesc(ctx.Targets)
	}
	program.FillPipelineDesc(&m.psoDesc)
	if o.drawState != nil {
		m.psoDesc.ApplyDrawState(*o.drawState)
	} else {
		m.psoDesc.ApplyDrawState(metadata.DefaultDrawState())
	}
	if err := m.refreshPipelineState(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Material) refreshPipelineState() error {
	pso, err := m.ctx.Pipelines.GraphicsPipelineState(&m.psoDesc)
	if err != nil {
		return fmt.Errorf("material %s: %w", m.name, err)
	}
	m.pso = pso
	return nil
}

func (m *Material) Name() string {
	return m.name
}

func (m *Material) Program() *shader.Program {
	return m.program
}

// ConstantBuffer returns the per-material constant buffer, nil when the program has none.
func (m *Material) ConstantBuffer() *renderer.ConstantBuffer {
	return m.cb
}

// SetMaterialData replaces the constants with a fixed-size value.
func (m *Material) SetMaterialData(v any) error {
	if m.cb == nil {
		return fmt.Errorf("%w: material %s has no constant buffer", core.ErrUnknownResource, m.name)
	}
	return m.cb.Set(v)
}

// WriteMaterialData copies b into the constants at offset.
func (m *Material) WriteMaterialData(offset uint32, b []byte) error {
	if m.cb == nil {
		return fmt.Errorf("%w: material %s has no constant buffer", core.ErrUnknownResource, m.name)
	}
	return m.cb.Write(offset, b)
}

// MaterialData returns a copy of the constants. It does not mark them dirty.
func (m *Material) MaterialData() []byte {
	if m.cb == nil {
		return nil
	}
	return m.cb.Bytes()
}

// MaterialDataRef returns the constants for in-place edits and marks them dirty.
func (m *Material) MaterialDataRef() []byte {
	if m.cb == nil {
		return nil
	}
	return m.cb.Ref()
}

// GetMaterialData decodes the constants into out. It does not mark them dirty.
func (m *Material) GetMaterialData(out any) error {
	if m.cb == nil {
		return fmt.Errorf("%w: material %s has no constant buffer", core.ErrUnknownResource, m.name)
	}
	return m.cb.Decode(out)
}

// Data decodes the material constants as T.
func Data[T any](m *Material) (T, error) {
	var zero T
	if m.cb == nil {
		return zero, fmt.Errorf("%w: material %s has no constant buffer", core.ErrUnknownResource, m.name)
	}
	return renderer.Load[T](m.cb)
}

// Modify edits the material constants as T and marks them dirty.
func Modify[T any](m *Material, fn func(*T)) error {
	if m.cb == nil {
		return fmt.Errorf("%w: material %s has no constant buffer", core.ErrUnknownResource, m.name)
	}
	return renderer.Modify(m.cb, fn)
}

// SetTexture binds tex to a texture variable of the program. Unknown names are ignored.
func (m *Material) SetTexture(name string, tex *renderer.Texture) {
	if _, ok := m.textures[name]; !ok {
		core.LogWarn("material %s: program %s has no texture named %q", m.name, m.program.Name(), name)
		return
	}
	m.textures[name] = tex
}

func (m *Material) Texture(name string) *renderer.Texture {
	return m.textures[name]
}

// Update uploads the constants into the frame's slot when they changed in the
// last FrameCount frames.
func (m *Material) Update(frame int) (bool, error) {
	if m.cb == nil {
		return false, nil
	}
	return m.cb.Update(frame)
}

// Setup binds the material constants and every assigned texture.
func (m *Material) Setup(cl renderer.CommandList, frame int) {
	if m.cb != nil {
		m.program.SetConstantBufferView(cl, m.cbName, m.cb.Address(frame))
	}
	names := maps.Keys(m.textures)
	slices.Sort(names)
	for _, name := range names {
		if tex := m.textures[name]; tex != nil {
			m.program.SetTexture(cl, name, tex.SRV())
		}
	}
}

func (m *Material) SetGraphicsRootSignature(cl renderer.CommandList) {
	m.program.SetGraphicsRootSignature(cl)
}

func (m *Material) SetPipelineState(cl renderer.CommandList) {
	cl.SetPipelineState(m.pso)
}

func (m *Material) SetConstantBufferView(cl renderer.CommandList, name string, addr metadata.GPUVirtualAddress) {
	m.program.SetConstantBufferView(cl, name, addr)
}

func (m *Material) SetPrimitiveTopology(cl renderer.CommandList) {
	m.program.SetPrimitiveTopology(cl)
}

func (m *Material) PipelineState() renderer.PipelineState {
	return m.pso
}

func (m *Material) SetRasterizerState(s metadata.RasterizerDesc) error {
	return m.updatePipelineState(func(d *renderer.GraphicsPipelineDesc) { d.RasterizerState = s })
}

func (m *Material) SetDepthStencilState(s metadata.DepthStencilDesc) error {
	return m.updatePipelineState(func(d *renderer.GraphicsPipelineDesc) { d.DepthStencilState = s })
}

func (m *Material) SetBlendState(s metadata.BlendDesc) error {
	return m.updatePipelineState(func(d *renderer.GraphicsPipelineDesc) { d.BlendState = s })
}

func (m *Material) SetDrawState(s metadata.DrawState) error {
	return m.updatePipelineState(func(d *renderer.GraphicsPipelineDesc) { d.ApplyDrawState(s) })
}

// updatePipelineState applies change and swaps the pipeline state. On error
// the previous description and pipeline state stay in place.
func (m *Material) updatePipelineState(change func(*renderer.GraphicsPipelineDesc)) error {
	prev := m.psoDesc
	change(&m.psoDesc)
	if err := m.refreshPipelineState(); err != nil {
		m.psoDesc = prev
		return err
	}
	return nil
}

func (m *Material) DrawState() metadata.DrawState {
	return m.psoDesc.DrawState()
}

// PipelineStateEqual reports whether two materials bind the same pipeline state object.
func PipelineStateEqual(a, b *Material) bool {
	return a.pso == b.pso
}

// RootSignatureEqual reports whether two materials bind the same root signature object.
func RootSignatureEqual(a, b *Material) bool {
	return shader.RootSignatureEqual(a.program, b.program)
}
