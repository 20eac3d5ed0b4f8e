package core

import (
	"errors"
)

var (
	// ErrInvalidStages is returned when a program is neither a compute program
	// nor a graphics program with both vertex and pixel stages.
	ErrInvalidStages = errors.New("invalid shader stage combination")
	// ErrUnsupportedVariable is returned when reflection reports a resource
	// kind the root signature builder cannot place.
	ErrUnsupportedVariable = errors.New("unsupported shader variable type")
	// ErrDescriptorHeapFull is returned when an allocation would exceed the heap capacity.
	ErrDescriptorHeapFull     = errors.New("descriptor heap capacity exceeded")
	ErrNativeCall             = errors.New("native graphics call failed")
	ErrConstantBufferOverflow = errors.New("constant buffer write out of range")
	ErrShaderCompile          = errors.New("shader compilation failed")
	ErrUnknownResource        = errors.New("unknown resource")
	ErrUnknown                = errors.New("unknown")
)
