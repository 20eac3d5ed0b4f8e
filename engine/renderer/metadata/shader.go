package metadata

import "fmt"

/** @brief A programmable pipeline stage. */
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStagePixel
	ShaderStageDomain
	ShaderStageHull
	ShaderStageGeometry
	ShaderStageCompute
)

/** @brief The order in which stages are reflected when building a program. */
var ShaderStageOrder = [...]ShaderStage{
	ShaderStageVertex,
	ShaderStagePixel,
	ShaderStageDomain,
	ShaderStageHull,
	ShaderStageGeometry,
	ShaderStageCompute,
}

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vs"
	case ShaderStagePixel:
		return "ps"
	case ShaderStageDomain:
		return "ds"
	case ShaderStageHull:
		return "hs"
	case ShaderStageGeometry:
		return "gs"
	case ShaderStageCompute:
		return "cs"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

/** @brief Visibility returns the root parameter visibility for bindings first seen in this stage. */
func (s ShaderStage) Visibility() ShaderVisibility {
	switch s {
	case ShaderStageVertex:
		return ShaderVisibilityVertex
	case ShaderStagePixel:
		return ShaderVisibilityPixel
	case ShaderStageDomain:
		return ShaderVisibilityDomain
	case ShaderStageHull:
		return ShaderVisibilityHull
	case ShaderStageGeometry:
		return ShaderVisibilityGeometry
	}
	return ShaderVisibilityAll
}

/** @brief Which stages can see a root parameter. Values match the native enum. */
type ShaderVisibility uint32

const (
	ShaderVisibilityAll      ShaderVisibility = 0
	ShaderVisibilityVertex   ShaderVisibility = 1
	ShaderVisibilityHull     ShaderVisibility = 2
	ShaderVisibilityDomain   ShaderVisibility = 3
	ShaderVisibilityGeometry ShaderVisibility = 4
	ShaderVisibilityPixel    ShaderVisibility = 5
)

func (v ShaderVisibility) String() string {
	switch v {
	case ShaderVisibilityAll:
		return "ALL"
	case ShaderVisibilityVertex:
		return "VERTEX"
	case ShaderVisibilityHull:
		return "HULL"
	case ShaderVisibilityDomain:
		return "DOMAIN"
	case ShaderVisibilityGeometry:
		return "GEOMETRY"
	case ShaderVisibilityPixel:
		return "PIXEL"
	}
	return fmt.Sprintf("VISIBILITY(%d)", uint32(v))
}

/** @brief The kind of a bound shader resource as reported by reflection. */
type ShaderInputType uint32

const (
	ShaderInputCBuffer ShaderInputType = iota
	ShaderInputTBuffer
	ShaderInputTexture
	ShaderInputSampler
	ShaderInputUAVRWTyped
	ShaderInputStructured
	ShaderInputUAVRWStructured
	ShaderInputByteAddress
	ShaderInputUAVRWByteAddress
	ShaderInputUAVAppendStructured
	ShaderInputUAVConsumeStructured
	ShaderInputUAVRWStructuredWithCounter
	ShaderInputRTAccelerationStructure
	ShaderInputUAVFeedbackTexture
)

var shaderInputTypeNames = [...]string{
	"D3D_SIT_CBUFFER",
	"D3D_SIT_TBUFFER",
	"D3D_SIT_TEXTURE",
	"D3D_SIT_SAMPLER",
	"D3D_SIT_UAV_RWTYPED",
	"D3D_SIT_STRUCTURED",
	"D3D_SIT_UAV_RWSTRUCTURED",
	"D3D_SIT_BYTEADDRESS",
	"D3D_SIT_UAV_RWBYTEADDRESS",
	"D3D_SIT_UAV_APPEND_STRUCTURED",
	"D3D_SIT_UAV_CONSUME_STRUCTURED",
	"D3D_SIT_UAV_RWSTRUCTURED_WITH_COUNTER",
	"D3D_SIT_RTACCELERATIONSTRUCTURE",
	"D3D_SIT_UAV_FEEDBACKTEXTURE",
}

func (t ShaderInputType) String() string {
	if int(t) < len(shaderInputTypeNames) {
		return shaderInputTypeNames[t]
	}
	return fmt.Sprintf("D3D_SIT_UNKNOWN(%d)", uint32(t))
}

/** @brief A single resource binding reported by stage reflection. */
type ResourceBinding struct {
	Name      string
	Type      ShaderInputType
	BindPoint uint32
	BindCount uint32
	Space     uint32
}

/** @brief The reflected layout of a constant buffer. Only the name and byte size are used. */
type ConstantBufferDesc struct {
	Name string
	Size uint32
}

/** @brief The scalar type of a vertex input register. */
type RegisterComponentType int

const (
	RegisterComponentUnknown RegisterComponentType = iota
	RegisterComponentUint32
	RegisterComponentSint32
	RegisterComponentFloat32
)

/** @brief A vertex shader input parameter. Mask has one bit per used component. */
type SignatureParameter struct {
	SemanticName  string
	SemanticIndex uint32
	ComponentType RegisterComponentType
	Mask          uint8
}

/**
 * @brief Everything the program builder needs from one compiled stage:
 * its resource bindings, constant buffer layouts, vertex inputs and,
 * for domain stages, the input control point count.
 */
type StageReflection struct {
	Stage           ShaderStage
	Bindings        []ResourceBinding
	ConstantBuffers []ConstantBufferDesc
	InputParameters []SignatureParameter
	ControlPoints   uint32
}

/** @brief Compiled code for one stage. */
type ShaderBytecode struct {
	Stage      ShaderStage
	EntryPoint string
	Code       []byte
}

func (b *ShaderBytecode) Empty() bool {
	return b == nil || len(b.Code) == 0
}
