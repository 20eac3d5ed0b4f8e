package naga

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/naga/ir"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// cbufferAlignment is the granularity reflected constant buffer sizes are rounded to.
const cbufferAlignment = 16

/**
 * @brief ReflectModule extracts the bindings, constant buffers and vertex
 * inputs of one entry point. When entry is empty the first entry point of the
 * matching stage is used.
 *
 * Resources are those referenced by the entry function or by a helper it
 * calls, directly or transitively. The WGSL group maps to the register space
 * and the binding to the register.
 */
func ReflectModule(module *ir.Module, stage metadata.ShaderStage, entry string) (*metadata.StageReflection, error) {
	if module == nil {
		return nil, fmt.Errorf("%w: nil module", core.ErrShaderCompile)
	}
	ep, ok := findEntryPoint(module, stage, entry)
	if !ok {
		return nil, fmt.Errorf("%w: no %s entry point %q", core.ErrUnknownResource, stage, entry)
	}

	refl := &metadata.StageReflection{Stage: stage}

	used := usedGlobals(module, &ep.Function)
	for i, g := range module.GlobalVariables {
		if g.Binding == nil || !used[i] {
			continue
		}
		b := metadata.ResourceBinding{
			Name:      g.Name,
			BindPoint: g.Binding.Binding,
			BindCount: 1,
			Space:     g.Binding.Group,
		}
		switch g.Space {
		case ir.SpaceUniform:
			b.Type = metadata.ShaderInputCBuffer
			refl.ConstantBuffers = append(refl.ConstantBuffers, metadata.ConstantBufferDesc{
				Name: g.Name,
				Size: math.AlignUp(typeSize(module, g.Type), cbufferAlignment),
			})
		case ir.SpaceHandle:
			b.Type = handleInputType(module.Types[g.Type].Inner)
		default:
			b.Type = metadata.ShaderInputUAVRWStructured
		}
		refl.Bindings = append(refl.Bindings, b)
	}

	if stage == metadata.ShaderStageVertex {
		refl.InputParameters = vertexInputs(module, &ep.Function)
	}
	return refl, nil
}

func findEntryPoint(module *ir.Module, stage metadata.ShaderStage, entry string) (ir.EntryPoint, bool) {
	for _, ep := range module.EntryPoints {
		if entry != "" {
			if ep.Name == entry {
				return ep, true
			}
			continue
		}
		if stageOf(ep) == stage {
			return ep, true
		}
	}
	return ir.EntryPoint{}, false
}

// stageOf maps WGSL stages. WGSL has no tessellation or geometry stages.
func stageOf(ep ir.EntryPoint) metadata.ShaderStage {
	switch ep.Stage {
	case ir.StageVertex:
		return metadata.ShaderStageVertex
	case ir.StageFragment:
		return metadata.ShaderStagePixel
	}
	return metadata.ShaderStageCompute
}

// usedGlobals marks the globals referenced by fn and every helper reachable
// through its call statements.
func usedGlobals(module *ir.Module, fn *ir.Function) map[int]bool {
	used := map[int]bool{}
	visited := map[ir.FunctionHandle]bool{}
	var visit func(f *ir.Function)
	visit = func(f *ir.Function) {
		for _, e := range f.Expressions {
			if gv, ok := e.Kind.(ir.ExprGlobalVariable); ok {
				used[int(gv.Variable)] = true
			}
		}
		for _, h := range callees(f.Body) {
			if visited[h] || int(h) >= len(module.Functions) {
				continue
			}
			visited[h] = true
			visit(&module.Functions[h])
		}
	}
	visit(fn)
	return used
}

// callees lists the call targets of a statement block, nested blocks included.
func callees(body []ir.Statement) []ir.FunctionHandle {
	var out []ir.FunctionHandle
	var walk func(b []ir.Statement)
	walk = func(b []ir.Statement) {
		for _, st := range b {
			switch k := st.Kind.(type) {
			case ir.StmtCall:
				out = append(out, k.Function)
			case ir.StmtBlock:
				walk(k.Block)
			case ir.StmtIf:
				walk(k.Accept)
				walk(k.Reject)
			case ir.StmtLoop:
				walk(k.Body)
				walk(k.Continuing)
			case ir.StmtSwitch:
				for _, c := range k.Cases {
					walk(c.Body)
				}
			}
		}
	}
	walk(body)
	return out
}

func handleInputType(inner any) metadata.ShaderInputType {
	switch t := inner.(type) {
	case ir.SamplerType:
		return metadata.ShaderInputSampler
	case ir.ImageType:
		if t.Class == ir.ImageClassStorage {
			return metadata.ShaderInputUAVRWTyped
		}
		return metadata.ShaderInputTexture
	}
	return metadata.ShaderInputStructured
}

func typeSize(module *ir.Module, h ir.TypeHandle) uint32 {
	switch t := module.Types[h].Inner.(type) {
	case ir.ScalarType:
		return uint32(t.Width)
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width)
	case ir.MatrixType:
		return uint32(t.Columns) * uint32(t.Rows) * uint32(t.Scalar.Width)
	case ir.StructType:
		return uint32(t.Span)
	}
	return 0
}

type location struct {
	index uint32
	param metadata.SignatureParameter
}

// vertexInputs collects location-bound arguments, flattening struct arguments.
// The semantic is the upper-cased argument or member name.
func vertexInputs(module *ir.Module, fn *ir.Function) []metadata.SignatureParameter {
	var locs []location
	add := func(name string, b *ir.Binding, th ir.TypeHandle) {
		if b == nil {
			return
		}
		lb, ok := (*b).(ir.LocationBinding)
		if !ok {
			return
		}
		ct, mask := componentsOf(module.Types[th].Inner)
		locs = append(locs, location{
			index: lb.Location,
			param: metadata.SignatureParameter{
				SemanticName:  strings.ToUpper(name),
				ComponentType: ct,
				Mask:          mask,
			},
		})
	}

	for _, arg := range fn.Arguments {
		if st, ok := module.Types[arg.Type].Inner.(ir.StructType); ok && arg.Binding == nil {
			for _, m := range st.Members {
				add(m.Name, m.Binding, m.Type)
			}
			continue
		}
		add(arg.Name, arg.Binding, arg.Type)
	}

	slices.SortFunc(locs, func(a, b location) int {
		return int(a.index) - int(b.index)
	})
	params := make([]metadata.SignatureParameter, len(locs))
	for i, l := range locs {
		params[i] = l.param
	}
	return params
}

func componentsOf(inner any) (metadata.RegisterComponentType, uint8) {
	switch t := inner.(type) {
	case ir.ScalarType:
		return componentType(t), 0x1
	case ir.VectorType:
		return componentType(t.Scalar), uint8(1)<<uint8(t.Size) - 1
	}
	return metadata.RegisterComponentUnknown, 0
}

func componentType(s ir.ScalarType) metadata.RegisterComponentType {
	switch s.Kind {
	case ir.ScalarFloat:
		return metadata.RegisterComponentFloat32
	case ir.ScalarUint:
		return metadata.RegisterComponentUint32
	case ir.ScalarSint:
		return metadata.RegisterComponentSint32
	}
	return metadata.RegisterComponentUnknown
}
