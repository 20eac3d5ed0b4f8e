package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

const DefaultConfigPath = "assets/config/soco.toml"

type RendererConfig struct {
	// FrameResources is the number of frames in flight.
	FrameResources int `toml:"frame_resources"`
	// BackBuffer and DepthStencil name the target formats, see formatNames.
	BackBuffer   string `toml:"back_buffer"`
	DepthStencil string `toml:"depth_stencil"`
	MSAA         bool   `toml:"msaa"`
	MSAAQuality  uint32 `toml:"msaa_quality"`
	// SRVHeapCapacity is the size of the shader visible CBV/SRV/UAV heap.
	SRVHeapCapacity uint32 `toml:"srv_heap_capacity"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type AssetsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
	// Scene is the scene asset loaded at startup.
	Scene string `toml:"scene"`
}

/**
 * @brief Config is the engine configuration file. Missing keys keep the
 * values of DefaultConfig.
 */
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Logging     LoggingConfig     `toml:"logging"`
	Assets      AssetsConfig      `toml:"assets"`
}

var formatNames = map[string]metadata.Format{
	"rgba8_unorm":     metadata.FormatR8G8B8A8Unorm,
	"rgba32_float":    metadata.FormatR32G32B32A32Float,
	"d32_float":       metadata.FormatD32Float,
	"d32_float_s8x24": metadata.FormatD32FloatS8X24Uint,
}

func DefaultConfig() Config {
	return Config{
		Application: ApplicationConfig{
			Name:        "Soco",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
		},
		Renderer: RendererConfig{
			FrameResources:  3,
			BackBuffer:      "rgba8_unorm",
			DepthStencil:    "d32_float_s8x24",
			SRVHeapCapacity: 256,
		},
		Logging: LoggingConfig{Level: "info"},
		Assets: AssetsConfig{
			Dir:   "assets",
			Scene: "solar",
		},
	}
}

// LoadConfig reads a toml configuration on top of the defaults. A relative
// asset directory is resolved against the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Assets.Dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.Assets.Dir = filepath.Join(wd, cfg.Assets.Dir)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Renderer.FrameResources < 1 {
		return fmt.Errorf("renderer.frame_resources must be positive, got %d", c.Renderer.FrameResources)
	}
	if c.Renderer.SRVHeapCapacity == 0 {
		return fmt.Errorf("renderer.srv_heap_capacity must be positive")
	}
	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		return fmt.Errorf("application size must be positive, got %dx%d", c.Application.StartWidth, c.Application.StartHeight)
	}
	if _, err := c.Targets(); err != nil {
		return err
	}
	if c.Assets.Scene == "" {
		return fmt.Errorf("%w: assets.scene is empty", core.ErrUnknownResource)
	}
	return nil
}

// Targets resolves the render target formats.
func (c *Config) Targets() (metadata.RenderTargetFormats, error) {
	bb, ok := formatNames[c.Renderer.BackBuffer]
	if !ok {
		return metadata.RenderTargetFormats{}, fmt.Errorf("unknown back buffer format %q", c.Renderer.BackBuffer)
	}
	ds, ok := formatNames[c.Renderer.DepthStencil]
	if !ok {
		return metadata.RenderTargetFormats{}, fmt.Errorf("unknown depth stencil format %q", c.Renderer.DepthStencil)
	}
	return metadata.RenderTargetFormats{
		BackBuffer:   bb,
		DepthStencil: ds,
		MSAA:         c.Renderer.MSAA,
		MSAAQuality:  c.Renderer.MSAAQuality,
	}, nil
}
