package cache

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"strings"

	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

func compareBlob(a, b []byte) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return bytes.Compare(a, b)
}

func rootSignatureBlob(rs renderer.RootSignature) []byte {
	if rs == nil {
		return nil
	}
	return rs.Blob()
}

// stateImage is the little-endian byte image of a fixed-size state struct.
func stateImage(v any) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func compareInputElement(a, b metadata.InputElementDesc) int {
	if c := cmp.Compare(len(a.SemanticName), len(b.SemanticName)); c != 0 {
		return c
	}
	if c := strings.Compare(a.SemanticName, b.SemanticName); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SemanticIndex, b.SemanticIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Format, b.Format); c != 0 {
		return c
	}
	if c := cmp.Compare(a.InputSlot, b.InputSlot); c != 0 {
		return c
	}
	if c := cmp.Compare(a.AlignedByteOffset, b.AlignedByteOffset); c != 0 {
		return c
	}
	if c := cmp.Compare(a.InputSlotClass, b.InputSlotClass); c != 0 {
		return c
	}
	return cmp.Compare(a.InstanceDataStepRate, b.InstanceDataStepRate)
}

/**
 * @brief ComparePipelineDesc is a total order over graphics pipeline
 * descriptors. Two descriptors compare equal exactly when they would build the
 * same pipeline state. Shader bytecode and root signatures compare by content.
 */
func ComparePipelineDesc(a, b *renderer.GraphicsPipelineDesc) int {
	if c := compareBlob(rootSignatureBlob(a.RootSignature), rootSignatureBlob(b.RootSignature)); c != 0 {
		return c
	}
	for _, pair := range [][2][]byte{{a.VS, b.VS}, {a.PS, b.PS}, {a.DS, b.DS}, {a.HS, b.HS}, {a.GS, b.GS}} {
		if c := compareBlob(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	if c := bytes.Compare(stateImage(&a.BlendState), stateImage(&b.BlendState)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SampleMask, b.SampleMask); c != 0 {
		return c
	}
	if c := bytes.Compare(stateImage(&a.RasterizerState), stateImage(&b.RasterizerState)); c != 0 {
		return c
	}
	if c := bytes.Compare(stateImage(&a.DepthStencilState), stateImage(&b.DepthStencilState)); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.InputLayout), len(b.InputLayout)); c != 0 {
		return c
	}
	for i := range a.InputLayout {
		if c := compareInputElement(a.InputLayout[i], b.InputLayout[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.IBStripCutValue, b.IBStripCutValue); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PrimitiveTopologyType, b.PrimitiveTopologyType); c != 0 {
		return c
	}
	if c := cmp.Compare(a.NumRenderTargets, b.NumRenderTargets); c != 0 {
		return c
	}
	for i := uint32(0); i < a.NumRenderTargets && i < uint32(len(a.RTVFormats)); i++ {
		if c := cmp.Compare(a.RTVFormats[i], b.RTVFormats[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.DSVFormat, b.DSVFormat); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SampleDesc.Count, b.SampleDesc.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SampleDesc.Quality, b.SampleDesc.Quality); c != 0 {
		return c
	}
	return cmp.Compare(a.Flags, b.Flags)
}
