package naga

import (
	"fmt"
	"sync"

	gonaga "github.com/gogpu/naga"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

type compiled struct {
	name   string
	module *ir.Module
}

/**
 * @brief Library compiles WGSL shaders to SPIR-V and answers reflection
 * queries for the bytecode it produced. Bytecode it did not compile is
 * forwarded to the fallback reflector, which is how stages WGSL cannot express
 * (hull, domain, geometry) are described.
 */
type Library struct {
	mu       sync.Mutex
	modules  map[string]compiled
	fallback renderer.Reflector
}

// NewLibrary creates an empty library. fallback may be nil.
func NewLibrary(fallback renderer.Reflector) *Library {
	return &Library{
		modules:  map[string]compiled{},
		fallback: fallback,
	}
}

func key(entry string, code []byte) string {
	return entry + "\x00" + string(code)
}

// ParseModule parses and lowers WGSL source to naga IR.
func ParseModule(source string) (*ir.Module, error) {
	ast, err := gonaga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", core.ErrShaderCompile, err)
	}
	module, err := gonaga.Lower(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: lower: %v", core.ErrShaderCompile, err)
	}
	return module, nil
}

/**
 * @brief CompileShaderFromSource compiles one entry point of a WGSL source.
 * Only vertex, pixel and compute stages exist in WGSL.
 */
func (l *Library) CompileShaderFromSource(name, source string, stage metadata.ShaderStage, entry string) (metadata.ShaderBytecode, error) {
	switch stage {
	case metadata.ShaderStageVertex, metadata.ShaderStagePixel, metadata.ShaderStageCompute:
	default:
		err := fmt.Errorf("%w: %s: WGSL has no %s stage", core.ErrShaderCompile, name, stage)
		core.LogError("%s", err)
		return metadata.ShaderBytecode{}, err
	}

	module, err := ParseModule(source)
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		core.LogError("%s", err)
		return metadata.ShaderBytecode{}, err
	}
	ep, ok := findEntryPoint(module, stage, entry)
	if !ok || stageOf(ep) != stage {
		err := fmt.Errorf("%w: %s has no %s entry point %q", core.ErrShaderCompile, name, stage, entry)
		core.LogError("%s", err)
		return metadata.ShaderBytecode{}, err
	}

	code, err := gonaga.Compile(source)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", core.ErrShaderCompile, name, err)
		core.LogError("%s", err)
		return metadata.ShaderBytecode{}, err
	}

	l.mu.Lock()
	l.modules[key(ep.Name, code)] = compiled{name: name, module: module}
	l.mu.Unlock()

	core.LogDebug("compiled %s %s:%s (%d bytes)", stage, name, ep.Name, len(code))
	return metadata.ShaderBytecode{Stage: stage, EntryPoint: ep.Name, Code: code}, nil
}

func (l *Library) Reflect(code metadata.ShaderBytecode) (*metadata.StageReflection, error) {
	l.mu.Lock()
	c, ok := l.modules[key(code.EntryPoint, code.Code)]
	l.mu.Unlock()
	if !ok {
		if l.fallback != nil {
			return l.fallback.Reflect(code)
		}
		return nil, fmt.Errorf("%w: bytecode for %s:%s was not compiled by this library", core.ErrUnknownResource, code.Stage, code.EntryPoint)
	}
	return ReflectModule(c.module, code.Stage, code.EntryPoint)
}

// Len is the number of compiled entry points.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.modules)
}

/**
 * @brief TranslateHLSL emits HLSL for a WGSL source at shader model 5.1 and
 * returns the register assignment of each resource. Each WGSL group becomes
 * a register space and each binding a register, the same mapping reflection
 * reports.
 */
func TranslateHLSL(source, entry string) (string, map[string]string, error) {
	module, err := ParseModule(source)
	if err != nil {
		return "", nil, err
	}
	opts := hlsl.DefaultOptions()
	opts.ShaderModel = hlsl.ShaderModel5_1
	opts.EntryPoint = entry
	opts.FakeMissingBindings = false
	for _, g := range module.GlobalVariables {
		if g.Binding == nil {
			continue
		}
		src := hlsl.ResourceBinding{Group: g.Binding.Group, Binding: g.Binding.Binding}
		opts.BindingMap[src] = hlsl.DefaultBindTarget().
			WithSpace(uint8(g.Binding.Group)).
			WithRegister(g.Binding.Binding)
	}
	out, info, err := hlsl.Compile(module, opts)
	if err != nil {
		return "", nil, fmt.Errorf("%w: hlsl: %v", core.ErrShaderCompile, err)
	}
	return out, info.RegisterBindings, nil
}
