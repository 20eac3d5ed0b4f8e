package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/shader"
)

// ShaderCompiler compiles one entry point of a shader source.
type ShaderCompiler interface {
	CompileShaderFromSource(name, source string, stage metadata.ShaderStage, entry string) (metadata.ShaderBytecode, error)
}

// ReflectionTable records reflection for stages that are not compiled from source.
type ReflectionTable interface {
	Register(stage metadata.ShaderStage, code string, refl metadata.StageReflection) metadata.ShaderBytecode
}

/**
 * @brief A shader manifest. Stages with an entry point are compiled from the
 * WGSL source, stages with a code identifier carry their reflection inline.
 * WGSL has no hull, domain or geometry stage, so those are always inline.
 */
type ShaderManifest struct {
	Name   string                   `toml:"name"`
	Source string                   `toml:"source"`
	Stages map[string]StageManifest `toml:"stages"`
}

type StageManifest struct {
	Entry           string            `toml:"entry"`
	Code            string            `toml:"code"`
	ControlPoints   uint32            `toml:"control_points"`
	Bindings        []BindingManifest `toml:"bindings"`
	ConstantBuffers []CBufferManifest `toml:"constant_buffers"`
	Inputs          []InputManifest   `toml:"inputs"`
}

type BindingManifest struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Register uint32 `toml:"register"`
	Space    uint32 `toml:"space"`
	Count    uint32 `toml:"count"`
}

type CBufferManifest struct {
	Name string `toml:"name"`
	Size uint32 `toml:"size"`
}

type InputManifest struct {
	Semantic   string `toml:"semantic"`
	Index      uint32 `toml:"index"`
	Type       string `toml:"type"`
	Components uint8  `toml:"components"`
}

/** @brief The loaded result of a shader manifest. */
type ShaderResourceData struct {
	Name string
	// Source is the WGSL file the manifest compiles from, empty when all stages are inline.
	Source string
	Stages shader.Stages
}

type ShaderLoader struct {
	Compiler ShaderCompiler
	Table    ReflectionTable
}

func (sl *ShaderLoader) Load(path string, params any) (*metadata.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m ShaderManifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrShaderCompile, path, err)
	}
	if m.Name == "" {
		m.Name = manifestName(path)
	}

	data := &ShaderResourceData{Name: m.Name}
	var source string
	if m.Source != "" {
		data.Source = filepath.Join(filepath.Dir(path), m.Source)
		src, err := os.ReadFile(data.Source)
		if err != nil {
			return nil, err
		}
		source = string(src)
	}

	for key, sm := range m.Stages {
		stage, err := parseStage(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrShaderCompile, m.Name, err)
		}
		code, err := sl.stage(m.Name, source, stage, sm)
		if err != nil {
			return nil, err
		}
		setStage(&data.Stages, stage, &code)
	}

	return &metadata.Resource{
		Name:     m.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeShader,
		DataSize: uint64(len(raw)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) stage(name, source string, stage metadata.ShaderStage, sm StageManifest) (metadata.ShaderBytecode, error) {
	if sm.Code == "" {
		if source == "" || sl.Compiler == nil {
			return metadata.ShaderBytecode{}, fmt.Errorf("%w: %s %s stage has neither code nor a source to compile", core.ErrShaderCompile, name, stage)
		}
		return sl.Compiler.CompileShaderFromSource(name, source, stage, sm.Entry)
	}
	if sl.Table == nil {
		return metadata.ShaderBytecode{}, fmt.Errorf("%w: %s %s stage is inline but no reflection table is set", core.ErrShaderCompile, name, stage)
	}

	refl := metadata.StageReflection{ControlPoints: sm.ControlPoints}
	for _, b := range sm.Bindings {
		t, err := parseInputType(b.Type)
		if err != nil {
			return metadata.ShaderBytecode{}, fmt.Errorf("%w: %s: %s: %v", core.ErrShaderCompile, name, b.Name, err)
		}
		count := b.Count
		if count == 0 {
			count = 1
		}
		refl.Bindings = append(refl.Bindings, metadata.ResourceBinding{
			Name:      b.Name,
			Type:      t,
			BindPoint: b.Register,
			BindCount: count,
			Space:     b.Space,
		})
	}
	for _, cb := range sm.ConstantBuffers {
		refl.ConstantBuffers = append(refl.ConstantBuffers, metadata.ConstantBufferDesc{Name: cb.Name, Size: cb.Size})
	}
	for _, in := range sm.Inputs {
		refl.InputParameters = append(refl.InputParameters, metadata.SignatureParameter{
			SemanticName:  in.Semantic,
			SemanticIndex: in.Index,
			ComponentType: parseComponentType(in.Type),
			Mask:          uint8(1)<<in.Components - 1,
		})
	}

	code := sl.Table.Register(stage, name+"."+sm.Code, refl)
	if sm.Entry != "" {
		code.EntryPoint = sm.Entry
	}
	return code, nil
}

func parseStage(s string) (metadata.ShaderStage, error) {
	for _, st := range metadata.ShaderStageOrder {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

func setStage(s *shader.Stages, stage metadata.ShaderStage, code *metadata.ShaderBytecode) {
	switch stage {
	case metadata.ShaderStageVertex:
		s.VS = code
	case metadata.ShaderStagePixel:
		s.PS = code
	case metadata.ShaderStageDomain:
		s.DS = code
	case metadata.ShaderStageHull:
		s.HS = code
	case metadata.ShaderStageGeometry:
		s.GS = code
	case metadata.ShaderStageCompute:
		s.CS = code
	}
}

var inputTypes = map[string]metadata.ShaderInputType{
	"cbuffer":       metadata.ShaderInputCBuffer,
	"texture":       metadata.ShaderInputTexture,
	"sampler":       metadata.ShaderInputSampler,
	"uav":           metadata.ShaderInputUAVRWTyped,
	"structured":    metadata.ShaderInputStructured,
	"rw_structured": metadata.ShaderInputUAVRWStructured,
}

func parseInputType(s string) (metadata.ShaderInputType, error) {
	t, ok := inputTypes[s]
	if !ok {
		return 0, fmt.Errorf("unknown binding type %q", s)
	}
	return t, nil
}

func parseComponentType(s string) metadata.RegisterComponentType {
	switch s {
	case "float", "":
		return metadata.RegisterComponentFloat32
	case "uint":
		return metadata.RegisterComponentUint32
	case "sint":
		return metadata.RegisterComponentSint32
	}
	return metadata.RegisterComponentUnknown
}

// manifestName strips every extension, so terrain.shader.toml is "terrain".
func manifestName(path string) string {
	base := filepath.Base(path)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = base[:len(base)-len(ext)]
	}
	return base
}

func (sl *ShaderLoader) Unload(*metadata.Resource) error {
	return nil
}
