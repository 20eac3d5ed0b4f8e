// Package shader builds programs from compiled stages. The root signature and
// input layout of a program are derived from reflection, never written by hand.
package shader

import (
	"fmt"
	"math/bits"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// Unresolved is the root slot of a variable that has no root parameter.
const Unresolved = -1

// Variable is a named resource binding merged across all stages of a program.
type Variable struct {
	Name       string
	Type       metadata.ShaderInputType
	BindPoint  uint32
	BindCount  uint32
	Space      uint32
	Visibility metadata.ShaderVisibility
	RootSlot   int
}

// Stages holds the compiled code of each stage. Nil stages are absent.
type Stages struct {
	VS, PS, DS, HS, GS, CS *metadata.ShaderBytecode
}

func (s *Stages) get(stage metadata.ShaderStage) *metadata.ShaderBytecode {
	var b *metadata.ShaderBytecode
	switch stage {
	case metadata.ShaderStageVertex:
		b = s.VS
	case metadata.ShaderStagePixel:
		b = s.PS
	case metadata.ShaderStageDomain:
		b = s.DS
	case metadata.ShaderStageHull:
		b = s.HS
	case metadata.ShaderStageGeometry:
		b = s.GS
	case metadata.ShaderStageCompute:
		b = s.CS
	}
	if b.Empty() {
		return nil
	}
	return b
}

func (s *Stages) validate() error {
	hasCS := s.get(metadata.ShaderStageCompute) != nil
	hasVS := s.get(metadata.ShaderStageVertex) != nil
	hasPS := s.get(metadata.ShaderStagePixel) != nil
	hasHS := s.get(metadata.ShaderStageHull) != nil
	hasDS := s.get(metadata.ShaderStageDomain) != nil
	hasGS := s.get(metadata.ShaderStageGeometry) != nil

	switch {
	case hasCS && (hasVS || hasPS || hasHS || hasDS || hasGS):
		return fmt.Errorf("%w: a compute program cannot have graphics stages", core.ErrInvalidStages)
	case !hasCS && (!hasVS || !hasPS):
		return fmt.Errorf("%w: a graphics program needs both vertex and pixel stages", core.ErrInvalidStages)
	case hasHS != hasDS:
		return fmt.Errorf("%w: hull and domain stages must be given together", core.ErrInvalidStages)
	}
	return nil
}

type Option func(*Program)

// WithInputLayout replaces the input layout derived from the vertex stage.
func WithInputLayout(layout []metadata.InputElementDesc) Option {
	return func(p *Program) {
		p.inputLayout = slices.Clone(layout)
		p.customLayout = true
	}
}

/**
 * @brief A set of compiled stages with a root signature built from their
 * reflection. Variables are keyed by name; the first stage to declare a name
 * fixes its register, and later stages only widen its visibility.
 */
type Program struct {
	name          string
	stages        Stages
	variables     map[string]*Variable
	cbuffers      map[string]metadata.ConstantBufferDesc
	textureSlots  map[string]uint32
	inputLayout   []metadata.InputElementDesc
	customLayout  bool
	topology      metadata.PrimitiveTopology
	rootDesc      metadata.RootSignatureDesc
	rootSignature renderer.RootSignature
	computePSO    renderer.PipelineState
}

func NewProgram(ctx *renderer.Context, name string, stages Stages, opts ...Option) (*Program, error) {
	if err := stages.validate(); err != nil {
		err = fmt.Errorf("program %s: %w", name, err)
		core.LogError("%s", err)
		return nil, err
	}

	p := &Program{
		name:         name,
		stages:       stages,
		variables:    map[string]*Variable{},
		cbuffers:     map[string]metadata.ConstantBufferDesc{},
		textureSlots: map[string]uint32{},
		topology:     metadata.PrimitiveTopologyTriangleList,
	}
	for _, opt := range opts {
		opt(p)
	}

	var vsReflection *metadata.StageReflection
	for _, stage := range metadata.ShaderStageOrder {
		code := stages.get(stage)
		if code == nil {
			continue
		}
		refl, err := ctx.Reflector.Reflect(*code)
		if err != nil {
			err = fmt.Errorf("program %s: reflecting %s: %w", name, stage, err)
			core.LogError("%s", err)
			return nil, err
		}
		p.mergeStage(stage, refl)
		if stage == metadata.ShaderStageVertex {
			vsReflection = refl
		}
	}

	if err := p.buildRootSignature(ctx); err != nil {
		return nil, err
	}
	if p.IsGraphics() && !p.customLayout {
		p.buildInputLayout(vsReflection)
	}
	if p.IsCompute() {
		if err := p.buildComputePipelineState(ctx); err != nil {
			return nil, err
		}
	}
	core.LogDebug("program %s built: %d variables, %d root parameters", name, len(p.variables), len(p.rootDesc.Parameters))
	return p, nil
}

func (p *Program) mergeStage(stage metadata.ShaderStage, refl *metadata.StageReflection) {
	for _, b := range refl.Bindings {
		if v, ok := p.variables[b.Name]; ok {
			v.Visibility = metadata.ShaderVisibilityAll
			continue
		}
		p.variables[b.Name] = &Variable{
			Name:       b.Name,
			Type:       b.Type,
			BindPoint:  b.BindPoint,
			BindCount:  b.BindCount,
			Space:      b.Space,
			Visibility: stage.Visibility(),
			RootSlot:   Unresolved,
		}
	}
	for _, cb := range refl.ConstantBuffers {
		if _, ok := p.cbuffers[cb.Name]; !ok {
			p.cbuffers[cb.Name] = cb
		}
	}
	if stage == metadata.ShaderStageDomain && refl.ControlPoints > 0 {
		p.topology = metadata.PatchListTopology(refl.ControlPoints)
	}
}

func (p *Program) buildRootSignature(ctx *renderer.Context) error {
	names := maps.Keys(p.variables)
	slices.Sort(names)

	params := make([]metadata.RootParameter, 0, len(names))
	for _, name := range names {
		v := p.variables[name]
		switch v.Type {
		case metadata.ShaderInputCBuffer:
			params = append(params, metadata.NewRootConstantBufferView(v.BindPoint, v.Space, metadata.ShaderVisibilityAll))
		case metadata.ShaderInputTexture:
			params = append(params, metadata.NewRootDescriptorTable(metadata.DescriptorRangeSRV, v.BindCount, v.BindPoint, v.Space, v.Visibility))
			p.textureSlots[name] = uint32(len(params) - 1)
		case metadata.ShaderInputUAVRWTyped:
			params = append(params, metadata.NewRootDescriptorTable(metadata.DescriptorRangeUAV, v.BindCount, v.BindPoint, v.Space, v.Visibility))
		case metadata.ShaderInputSampler:
			continue
		default:
			err := fmt.Errorf("%w: program %s variable %s has type %d (%s)",
				core.ErrUnsupportedVariable, p.name, v.Name, uint32(v.Type), v.Type)
			core.LogError("%s", err)
			return err
		}
		v.RootSlot = len(params) - 1
	}

	p.rootDesc = metadata.RootSignatureDesc{
		Parameters:     params,
		StaticSamplers: metadata.StaticSamplers(),
		Flags:          metadata.RootSignatureFlagAllowInputAssemblerInputLayout,
	}
	rs, err := ctx.RootSignatures.RootSignature(p.rootDesc.Serialize())
	if err != nil {
		return fmt.Errorf("program %s: %w", p.name, err)
	}
	p.rootSignature = rs
	return nil
}

func (p *Program) buildInputLayout(vs *metadata.StageReflection) {
	p.inputLayout = p.inputLayout[:0]
	if vs == nil {
		return
	}
	offset := uint32(0)
	for _, in := range vs.InputParameters {
		// ceil(log2(mask+1)) components
		count := bits.Len8(in.Mask)
		p.inputLayout = append(p.inputLayout, metadata.InputElementDesc{
			SemanticName:      in.SemanticName,
			SemanticIndex:     0,
			Format:            metadata.VertexFormat(in.ComponentType, count),
			InputSlot:         0,
			AlignedByteOffset: offset,
			InputSlotClass:    metadata.InputClassificationPerVertex,
		})
		offset += uint32(count) * 4
	}
}

func (p *Program) buildComputePipelineState(ctx *renderer.Context) error {
	pso, err := ctx.Device.CreateComputePipelineState(&renderer.ComputePipelineDesc{
		RootSignature: p.rootSignature,
		CS:            p.stages.CS.Code,
	})
	if err != nil {
		err = fmt.Errorf("%w: program %s compute pipeline: %v", core.ErrNativeCall, p.name, err)
		core.LogError("%s", err)
		return err
	}
	p.computePSO = pso
	return nil
}

func (p *Program) Name() string {
	return p.name
}

func (p *Program) IsCompute() bool {
	return p.stages.get(metadata.ShaderStageCompute) != nil
}

func (p *Program) IsGraphics() bool {
	return p.stages.get(metadata.ShaderStageVertex) != nil && p.stages.get(metadata.ShaderStagePixel) != nil
}

func (p *Program) HasTessellation() bool {
	return p.stages.get(metadata.ShaderStageHull) != nil && p.stages.get(metadata.ShaderStageDomain) != nil
}

// Slot returns the root parameter index of a variable, or Unresolved.
func (p *Program) Slot(name string) int {
	if v, ok := p.variables[name]; ok {
		return v.RootSlot
	}
	return Unresolved
}

// Variable returns a copy of a merged variable.
func (p *Program) Variable(name string) (Variable, bool) {
	v, ok := p.variables[name]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// Variables returns copies of all variables sorted by name.
func (p *Program) Variables() []Variable {
	names := maps.Keys(p.variables)
	slices.Sort(names)
	out := make([]Variable, len(names))
	for i, n := range names {
		out[i] = *p.variables[n]
	}
	return out
}

// ConstantBuffer returns the reflected layout of a constant buffer.
func (p *Program) ConstantBuffer(name string) (metadata.ConstantBufferDesc, bool) {
	cb, ok := p.cbuffers[name]
	return cb, ok
}

// TextureSlots maps every texture variable to its root parameter index.
func (p *Program) TextureSlots() map[string]uint32 {
	return maps.Clone(p.textureSlots)
}

func (p *Program) InputLayout() []metadata.InputElementDesc {
	return slices.Clone(p.inputLayout)
}

func (p *Program) Topology() metadata.PrimitiveTopology {
	return p.topology
}

func (p *Program) RootSignature() renderer.RootSignature {
	return p.rootSignature
}

// RootSignatureDesc is the descriptor the root signature was created from.
func (p *Program) RootSignatureDesc() metadata.RootSignatureDesc {
	return p.rootDesc
}

func (p *Program) SetConstantBufferView(cl renderer.CommandList, name string, addr metadata.GPUVirtualAddress) {
	slot := p.Slot(name)
	if slot == Unresolved {
		return
	}
	if p.IsGraphics() {
		cl.SetGraphicsRootConstantBufferView(uint32(slot), addr)
	} else if p.IsCompute() {
		cl.SetComputeRootConstantBufferView(uint32(slot), addr)
	}
}

// SetTexture binds a descriptor table. It is also used for read-write textures.
func (p *Program) SetTexture(cl renderer.CommandList, name string, base metadata.GPUDescriptorHandle) {
	slot := p.Slot(name)
	if slot == Unresolved {
		return
	}
	if p.IsGraphics() {
		cl.SetGraphicsRootDescriptorTable(uint32(slot), base)
	} else if p.IsCompute() {
		cl.SetComputeRootDescriptorTable(uint32(slot), base)
	}
}

func (p *Program) SetGraphicsRootSignature(cl renderer.CommandList) {
	cl.SetGraphicsRootSignature(p.rootSignature)
}

func (p *Program) SetComputeRootSignature(cl renderer.CommandList) {
	cl.SetComputeRootSignature(p.rootSignature)
}

func (p *Program) SetPrimitiveTopology(cl renderer.CommandList) {
	cl.IASetPrimitiveTopology(p.topology)
}

func (p *Program) SetComputePipelineState(cl renderer.CommandList) {
	cl.SetPipelineState(p.computePSO)
}

/**
 * @brief FillPipelineDesc writes the root signature, shader bytecode, input
 * layout and topology type of this program into desc.
 */
func (p *Program) FillPipelineDesc(desc *renderer.GraphicsPipelineDesc) {
	desc.RootSignature = p.rootSignature
	desc.VS, desc.PS, desc.DS, desc.HS, desc.GS = nil, nil, nil, nil, nil
	if b := p.stages.get(metadata.ShaderStageVertex); b != nil {
		desc.VS = b.Code
	}
	if b := p.stages.get(metadata.ShaderStagePixel); b != nil {
		desc.PS = b.Code
	}
	if b := p.stages.get(metadata.ShaderStageDomain); b != nil {
		desc.DS = b.Code
	}
	if b := p.stages.get(metadata.ShaderStageHull); b != nil {
		desc.HS = b.Code
	}
	if b := p.stages.get(metadata.ShaderStageGeometry); b != nil {
		desc.GS = b.Code
	}
	desc.InputLayout = p.InputLayout()
	if p.HasTessellation() {
		desc.PrimitiveTopologyType = metadata.PrimitiveTopologyTypePatch
	} else {
		desc.PrimitiveTopologyType = metadata.PrimitiveTopologyTypeTriangle
	}
}

// RootSignatureEqual reports whether two programs share one root signature object.
func RootSignatureEqual(a, b *Program) bool {
	return a.rootSignature == b.rootSignature
}
