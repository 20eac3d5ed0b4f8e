package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/soco/engine/assets/loaders"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// reloadQueue bounds the pending change notifications.
const reloadQueue = 64

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

/**
 * @brief AssetManager indexes the asset directory, resolves asset names to
 * files and dispatches them to the loader of their type. When watching, file
 * changes are reported on Reloads; the watcher goroutine never loads anything
 * itself.
 */
type AssetManager struct {
	dir     string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed atomic.Bool
	watching bool
	reloads  chan AssetInfo
}

// NewAssetManager creates a manager rooted at dir. With watch set, a
// filesystem watcher reports changes once Initialize has run.
func NewAssetManager(dir string, watch bool) (*AssetManager, error) {
	am := &AssetManager{
		dir:     filepath.Clean(dir),
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		reloads: make(chan AssetInfo, reloadQueue),
		done:    make(chan struct{}),
	}
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		am.fsnotify = w
	}
	return am, nil
}

// Initialize indexes the asset directory and registers the loaders. Shaders
// are compiled by compiler, inline stage reflection goes to table.
func (am *AssetManager) Initialize(compiler loaders.ShaderCompiler, table loaders.ReflectionTable) error {
	am.RegisterLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{Compiler: compiler, Table: table})
	am.RegisterLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.RegisterLoader(metadata.ResourceTypeMaterial, &loaders.MaterialLoader{})
	am.RegisterLoader(metadata.ResourceTypeScene, &loaders.SceneLoader{})

	if err := am.watchRecursive(am.dir); err != nil {
		return err
	}
	if am.fsnotify != nil {
		am.mutex.Lock()
		am.watching = true
		am.mutex.Unlock()
		go am.start()
	}
	core.LogInfo("asset manager indexed %d assets under %s", am.Count(), am.dir)
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// Path resolves an asset name to the file it is loaded from. Image names
// carry their extension.
func (am *AssetManager) Path(name string, resourceType metadata.ResourceType) (string, error) {
	switch resourceType {
	case metadata.ResourceTypeShader:
		return filepath.Join(am.dir, "shaders", name+".shader.toml"), nil
	case metadata.ResourceTypeMaterial:
		return filepath.Join(am.dir, "materials", name+".material.toml"), nil
	case metadata.ResourceTypeScene:
		return filepath.Join(am.dir, "scenes", name+".scene.toml"), nil
	case metadata.ResourceTypeImage:
		return filepath.Join(am.dir, "textures", name), nil
	}
	return "", fmt.Errorf("%w: no loadable asset type %s", core.ErrUnknownResource, resourceType)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params any) (*metadata.Resource, error) {
	path, err := am.Path(name, resourceType)
	if err != nil {
		return nil, err
	}
	indexed := path
	if p, ok := params.(*metadata.ImageResourceParams); ok && p.Cube {
		ext := filepath.Ext(path)
		indexed = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(path, ext), loaders.CubeFaces[0], ext)
	}

	am.mutex.Lock()
	asset, exists := am.assets[indexed]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[indexed] = asset
	}
	loader, loaderExists := am.loaders[resourceType]
	am.mutex.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: asset not found: %s", core.ErrUnknownResource, indexed)
	}
	if !loaderExists {
		return nil, fmt.Errorf("%w: no loader registered for asset type %s", core.ErrUnknownResource, resourceType)
	}

	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}
	core.LogDebug("loaded %s %s", resourceType, path)
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	am.mutex.RLock()
	loader, ok := am.loaders[res.Type]
	am.mutex.RUnlock()
	if !ok {
		return nil
	}
	return loader.Unload(res)
}

// Info reports the index entry of a file path.
func (am *AssetManager) Info(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[filepath.Clean(path)]
	return a, ok
}

// Count is the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Reloads delivers indexed files that were created or written while watching.
func (am *AssetManager) Reloads() <-chan AssetInfo {
	return am.reloads
}

// Shutdown stops the watcher. It is safe to call more than once.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if !am.isClosed.CompareAndSwap(false, true) {
		return nil
	}
	close(am.done)
	if am.fsnotify != nil && !am.watching {
		return am.fsnotify.Close()
	}
	return nil
}

func (am *AssetManager) start() {
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err.Error())

		case <-am.done:
			if err := am.fsnotify.Close(); err != nil {
				core.LogWarn("asset watcher close: %s", err.Error())
			}
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("asset watcher: %s", err.Error())
			}
		}
		return
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		if info, ok := am.handleFileEvent(e.Name); ok {
			select {
			case am.reloads <- info:
			default:
				core.LogWarn("asset reload queue full, dropping %s", info.Path)
			}
		}
	}
	// A removed path cannot be stat'ed, so it is dropped from both the index and the watch list.
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
	}
}

// watchRecursive indexes every file under path and, when watching, adds
// every directory to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	if am.isClosed.Load() {
		return errors.New("asset manager already closed")
	}
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify == nil {
				return nil
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := AssetInfo{
		Path: filepath.Clean(path),
		Type: assetType,
	}
	if prev, ok := am.assets[info.Path]; ok {
		info.LastLoaded = prev.LastLoaded
	}
	am.assets[info.Path] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) metadata.ResourceType {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".shader.toml"):
		return metadata.ResourceTypeShader
	case strings.HasSuffix(base, ".material.toml"):
		return metadata.ResourceTypeMaterial
	case strings.HasSuffix(base, ".scene.toml"):
		return metadata.ResourceTypeScene
	}
	switch filepath.Ext(base) {
	case ".wgsl":
		return metadata.ResourceTypeShaderSource
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return metadata.ResourceTypeImage
	default:
		return metadata.ResourceTypeNone
	}
}
