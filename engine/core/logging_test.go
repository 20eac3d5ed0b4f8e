package core

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogErrorKeepsPercentVerbs(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)

	err := fmt.Errorf("%w: material %q at 100%% load", ErrUnknownResource, "%d")
	LogError("%s", err)
	assert.Contains(t, buf.String(), `material "%d" at 100% load`)
	assert.NotContains(t, buf.String(), "%!")
}
