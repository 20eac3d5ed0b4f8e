package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadManifest = `
name = "Draw2D"

[stages.vs]
code = "quad.vs"
  [[stages.vs.bindings]]
  name = "cbTexPosition"
  type = "cbuffer"
  register = 0
  [[stages.vs.constant_buffers]]
  name = "cbTexPosition"
  size = 16

[stages.ps]
code = "quad.ps"
  [[stages.ps.bindings]]
  name = "MainTex"
  type = "texture"
  register = 0
`

const brokenManifest = `
name = "Broken"

[stages.ps]
code = "broken.ps"
`

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, "shaders", name+manifestSuffix)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestRunPrintsSummary(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "quad", quadManifest)

	var out bytes.Buffer
	require.NoError(t, run(options{dir: dir}, &out))
	assert.Contains(t, out.String(), "Shader: Draw2D")
	assert.Contains(t, out.String(), "Name: cbTexPosition")
	assert.Contains(t, out.String(), "Name: MainTex")
}

func TestRunCheckReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "quad", quadManifest)
	// a pixel stage without a vertex stage is not a program
	writeManifest(t, dir, "broken", brokenManifest)

	var out bytes.Buffer
	err := run(options{dir: dir, check: true}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "ok   quad")
	assert.Contains(t, out.String(), "FAIL broken")
	assert.NotContains(t, out.String(), "Shader: Draw2D")
}

func TestRunNamedShaders(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "quad", quadManifest)
	writeManifest(t, dir, "broken", brokenManifest)

	var out bytes.Buffer
	require.NoError(t, run(options{dir: dir, names: []string{"quad"}}, &out))
	assert.NotContains(t, out.String(), "broken")
}

func TestRunWithoutManifests(t *testing.T) {
	assert.Error(t, run(options{dir: t.TempDir()}, &bytes.Buffer{}))
}

func TestManifestsSorted(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "sky", quadManifest)
	writeManifest(t, dir, "quad", quadManifest)

	names, err := manifests(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"quad", "sky"}, names)
}
