package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

type RootParameterType uint32

const (
	RootParameterDescriptorTable RootParameterType = 0
	RootParameter32BitConstants  RootParameterType = 1
	RootParameterCBV             RootParameterType = 2
	RootParameterSRV             RootParameterType = 3
	RootParameterUAV             RootParameterType = 4
)

type DescriptorRangeType uint32

const (
	DescriptorRangeSRV     DescriptorRangeType = 0
	DescriptorRangeUAV     DescriptorRangeType = 1
	DescriptorRangeCBV     DescriptorRangeType = 2
	DescriptorRangeSampler DescriptorRangeType = 3
)

/** @brief A contiguous run of registers inside a descriptor table. */
type DescriptorRange struct {
	Type               DescriptorRangeType
	NumDescriptors     uint32
	BaseShaderRegister uint32
	RegisterSpace      uint32
}

/**
 * @brief A root signature slot. Root descriptors use ShaderRegister and
 * RegisterSpace, descriptor tables use Ranges.
 */
type RootParameter struct {
	Type           RootParameterType
	Visibility     ShaderVisibility
	ShaderRegister uint32
	RegisterSpace  uint32
	Ranges         []DescriptorRange
}

func NewRootConstantBufferView(register, space uint32, visibility ShaderVisibility) RootParameter {
	return RootParameter{
		Type:           RootParameterCBV,
		Visibility:     visibility,
		ShaderRegister: register,
		RegisterSpace:  space,
	}
}

func NewRootDescriptorTable(rangeType DescriptorRangeType, count, register, space uint32, visibility ShaderVisibility) RootParameter {
	return RootParameter{
		Type:       RootParameterDescriptorTable,
		Visibility: visibility,
		Ranges: []DescriptorRange{{
			Type:               rangeType,
			NumDescriptors:     count,
			BaseShaderRegister: register,
			RegisterSpace:      space,
		}},
	}
}

type Filter uint32

const (
	FilterMinMagMipPoint  Filter = 0x0
	FilterMinMagMipLinear Filter = 0x15
	FilterAnisotropic     Filter = 0x55
)

type TextureAddressMode uint32

const (
	TextureAddressWrap  TextureAddressMode = 1
	TextureAddressClamp TextureAddressMode = 3
)

type StaticSamplerDesc struct {
	Filter         Filter
	AddressU       TextureAddressMode
	AddressV       TextureAddressMode
	AddressW       TextureAddressMode
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc ComparisonFunc
	BorderColor    uint32
	MinLOD         float32
	MaxLOD         float32
	ShaderRegister uint32
	RegisterSpace  uint32
	Visibility     ShaderVisibility
}

const maxLOD = 3.402823466e+38

func newStaticSampler(register uint32, filter Filter, mode TextureAddressMode, anisotropy uint32) StaticSamplerDesc {
	return StaticSamplerDesc{
		Filter:         filter,
		AddressU:       mode,
		AddressV:       mode,
		AddressW:       mode,
		MaxAnisotropy:  anisotropy,
		ComparisonFunc: ComparisonFuncLessEqual,
		BorderColor:    2, // opaque white
		MaxLOD:         maxLOD,
		ShaderRegister: register,
		Visibility:     ShaderVisibilityAll,
	}
}

/**
 * @brief The six static samplers every program root signature carries, in
 * registers s0..s5: point, linear and anisotropic, each with wrap and clamp.
 */
func StaticSamplers() []StaticSamplerDesc {
	return []StaticSamplerDesc{
		newStaticSampler(0, FilterMinMagMipPoint, TextureAddressWrap, 16),
		newStaticSampler(1, FilterMinMagMipPoint, TextureAddressClamp, 16),
		newStaticSampler(2, FilterMinMagMipLinear, TextureAddressWrap, 16),
		newStaticSampler(3, FilterMinMagMipLinear, TextureAddressClamp, 16),
		newStaticSampler(4, FilterAnisotropic, TextureAddressWrap, 8),
		newStaticSampler(5, FilterAnisotropic, TextureAddressClamp, 8),
	}
}

type RootSignatureFlags uint32

const (
	RootSignatureFlagNone                           RootSignatureFlags = 0
	RootSignatureFlagAllowInputAssemblerInputLayout RootSignatureFlags = 0x1
)

type RootSignatureDesc struct {
	Parameters     []RootParameter
	StaticSamplers []StaticSamplerDesc
	Flags          RootSignatureFlags
}

const rootSignatureMagic uint32 = 0x534f5253 // "SROS"
const rootSignatureVersion uint32 = 1

var ErrMalformedRootSignature = errors.New("malformed root signature blob")

/**
 * @brief Serialize encodes the descriptor into a little-endian blob. Equal
 * descriptors always produce equal blobs, so the blob can be used as the
 * identity of the root signature.
 */
func (d *RootSignatureDesc) Serialize() []byte {
	var buf bytes.Buffer
	w := func(v any) {
		// bytes.Buffer never fails
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	w(rootSignatureMagic)
	w(rootSignatureVersion)
	w(uint32(d.Flags))
	w(uint32(len(d.Parameters)))
	for _, p := range d.Parameters {
		w(uint32(p.Type))
		w(uint32(p.Visibility))
		w(p.ShaderRegister)
		w(p.RegisterSpace)
		w(uint32(len(p.Ranges)))
		for _, r := range p.Ranges {
			w(r)
		}
	}
	w(uint32(len(d.StaticSamplers)))
	for _, s := range d.StaticSamplers {
		w(s)
	}
	return buf.Bytes()
}

// DeserializeRootSignature parses a blob produced by Serialize.
func DeserializeRootSignature(blob []byte) (*RootSignatureDesc, error) {
	r := bytes.NewReader(blob)
	var err error
	read := func(v any) {
		if err == nil {
			err = binary.Read(r, binary.LittleEndian, v)
		}
	}

	var magic, version, flags, numParams uint32
	read(&magic)
	read(&version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRootSignature, err)
	}
	if magic != rootSignatureMagic || version != rootSignatureVersion {
		return nil, fmt.Errorf("%w: bad header %#x v%d", ErrMalformedRootSignature, magic, version)
	}
	read(&flags)
	read(&numParams)

	desc := &RootSignatureDesc{Flags: RootSignatureFlags(flags)}
	for i := uint32(0); i < numParams && err == nil; i++ {
		var typ, vis, numRanges uint32
		p := RootParameter{}
		read(&typ)
		read(&vis)
		read(&p.ShaderRegister)
		read(&p.RegisterSpace)
		read(&numRanges)
		p.Type = RootParameterType(typ)
		p.Visibility = ShaderVisibility(vis)
		for j := uint32(0); j < numRanges && err == nil; j++ {
			var rng DescriptorRange
			read(&rng)
			p.Ranges = append(p.Ranges, rng)
		}
		desc.Parameters = append(desc.Parameters, p)
	}

	var numSamplers uint32
	read(&numSamplers)
	for i := uint32(0); i < numSamplers && err == nil; i++ {
		var s StaticSamplerDesc
		read(&s)
		desc.StaticSamplers = append(desc.StaticSamplers, s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRootSignature, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedRootSignature, r.Len())
	}
	return desc, nil
}
