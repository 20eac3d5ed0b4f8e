package metadata

const ConstantBufferAlignment = 256

// CalcConstantBufferByteSize rounds a constant buffer size up to the 256 byte
// placement alignment.
func CalcConstantBufferByteSize(size uint32) uint32 {
	return (size + ConstantBufferAlignment - 1) &^ (ConstantBufferAlignment - 1)
}
