package loaders

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

type SceneLoader struct{}

func (sl *SceneLoader) Load(path string, params any) (*metadata.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseScene(raw)
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
		Type:     metadata.ResourceTypeScene,
		DataSize: uint64(len(raw)),
		Data:     cfg,
	}, nil
}

// ParseScene decodes a scene file. Objects must have unique names and a
// parent must be declared before its children.
func ParseScene(raw []byte) (*metadata.SceneConfig, error) {
	cfg := &metadata.SceneConfig{
		Camera: metadata.CameraConfig{
			Position: [3]float32{0, 0, -10},
			FOV:      45,
			Near:     1,
			Far:      1000,
		},
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnknownResource, err)
	}

	seen := map[string]bool{}
	for i := range cfg.Objects {
		o := &cfg.Objects[i]
		if o.Name == "" || seen[o.Name] {
			return nil, fmt.Errorf("%w: object %d has an empty or duplicate name %q", core.ErrUnknownResource, i, o.Name)
		}
		if o.Parent != "" && !seen[o.Parent] {
			return nil, fmt.Errorf("%w: object %q orbits %q which is not declared before it", core.ErrUnknownResource, o.Name, o.Parent)
		}
		switch o.Mesh.Kind {
		case "sphere", "box":
		default:
			return nil, fmt.Errorf("%w: object %q has unknown mesh kind %q", core.ErrUnknownResource, o.Name, o.Mesh.Kind)
		}
		if _, err := metadata.ParseRenderLayer(o.Layer); err != nil {
			return nil, fmt.Errorf("%w: object %q: %v", core.ErrUnknownResource, o.Name, err)
		}
		if o.Scale == 0 {
			o.Scale = 1
		}
		seen[o.Name] = true
	}
	return cfg, nil
}

func (sl *SceneLoader) Unload(*metadata.Resource) error {
	return nil
}
