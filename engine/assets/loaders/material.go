package loaders

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

type MaterialLoader struct{}

func (ml *MaterialLoader) Load(path string, params any) (*metadata.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseMaterial(raw)
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		core.LogError("%s", err)
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = manifestName(path)
	}
	return &metadata.Resource{
		Name:     cfg.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeMaterial,
		DataSize: uint64(len(raw)),
		Data:     cfg,
	}, nil
}

// ParseMaterial decodes a material file and validates its layer and draw state.
func ParseMaterial(raw []byte) (*metadata.MaterialConfig, error) {
	cfg := &metadata.MaterialConfig{
		Data: metadata.MaterialData{
			DiffuseAlbedo: [4]float32{1, 1, 1, 1},
			FresnelR0:     [3]float32{0.01, 0.01, 0.01},
			Roughness:     0.25,
		},
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnknownResource, err)
	}
	if cfg.Shader == "" {
		return nil, fmt.Errorf("%w: material %q names no shader", core.ErrUnknownResource, cfg.Name)
	}
	if _, err := metadata.ParseRenderLayer(cfg.Layer); err != nil {
		return nil, fmt.Errorf("%w: material %q: %v", core.ErrUnknownResource, cfg.Name, err)
	}
	s := metadata.DefaultDrawState()
	if err := cfg.State.Apply(&s); err != nil {
		return nil, fmt.Errorf("%w: material %q: %v", core.ErrUnknownResource, cfg.Name, err)
	}
	return cfg, nil
}

func (ml *MaterialLoader) Unload(*metadata.Resource) error {
	return nil
}
