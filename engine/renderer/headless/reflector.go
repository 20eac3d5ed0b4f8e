package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// Reflector answers reflection queries from a table keyed by bytecode content.
type Reflector struct {
	mu     sync.Mutex
	stages map[string]metadata.StageReflection
	calls  int
}

func NewReflector() *Reflector {
	return &Reflector{stages: map[string]metadata.StageReflection{}}
}

// Register stores the reflection for code and returns the bytecode to build programs with.
func (r *Reflector) Register(stage metadata.ShaderStage, code string, refl metadata.StageReflection) metadata.ShaderBytecode {
	r.mu.Lock()
	defer r.mu.Unlock()
	refl.Stage = stage
	r.stages[code] = refl
	return metadata.ShaderBytecode{Stage: stage, EntryPoint: "main", Code: []byte(code)}
}

func (r *Reflector) Reflect(code metadata.ShaderBytecode) (*metadata.StageReflection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	refl, ok := r.stages[string(code.Code)]
	if !ok {
		return nil, fmt.Errorf("%w: no reflection for %s bytecode", core.ErrUnknownResource, code.Stage)
	}
	return &refl, nil
}

// Calls is the number of Reflect calls.
func (r *Reflector) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
