package engine

import (
	"runtime"
	"sync"

	"github.com/spaghettifunk/soco/engine/jobs"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

type imageRef struct {
	asset string
	cube  bool
}

func (r imageRef) key() string {
	if r.cube {
		return r.asset + cubeSuffix
	}
	return r.asset
}

// imageRefs lists every image the scene will upload, skipping textures
// already in s.textures. Unknown materials are left for the build to report.
func (s *Scene) imageRefs() []imageRef {
	seen := map[string]bool{}
	var refs []imageRef
	add := func(asset string, cube bool) {
		r := imageRef{asset: asset, cube: cube}
		if asset == "" || seen[r.key()] {
			return
		}
		seen[r.key()] = true
		if _, ok := s.textures[r.key()]; ok {
			return
		}
		refs = append(refs, r)
	}
	addMaterial := func(name string) {
		cfg, err := s.loadMaterialConfig(name)
		if err != nil {
			return
		}
		for _, asset := range cfg.Textures {
			add(asset, false)
		}
		for _, asset := range cfg.CubeMaps {
			add(asset, true)
		}
	}

	cfg := s.config
	if cfg.Skybox != nil {
		addMaterial(cfg.Skybox.Material)
	}
	if cfg.Terrain != nil {
		add(cfg.Terrain.HeightMap, false)
		addMaterial(cfg.Terrain.Material)
	}
	for _, oc := range cfg.Objects {
		addMaterial(oc.Material)
	}
	for _, oc := range cfg.Overlays {
		add(oc.Texture, false)
	}
	return refs
}

/**
 * @brief prefetch decodes the scene images on a job system so that the
 * uploads in the build only wait on the device. A failed decode is left for
 * the build to load again and report.
 */
func (s *Scene) prefetch() {
	refs := s.imageRefs()
	if len(refs) < 2 {
		return
	}
	js, err := jobs.NewJobSystem(min(runtime.NumCPU(), len(refs)), len(refs))
	if err != nil {
		return
	}

	var mu sync.Mutex
	s.decoded = make(map[string]*metadata.ImageResourceData, len(refs))
	for _, r := range refs {
		js.Submit(jobs.JobTask{
			Name: r.asset,
			Run: func() error {
				data, err := s.decodeImage(r.asset, r.cube)
				if err != nil {
					return err
				}
				mu.Lock()
				s.decoded[r.key()] = data
				mu.Unlock()
				return nil
			},
		})
	}
	_ = js.Shutdown()
}
