package assets

import "github.com/spaghettifunk/soco/engine/renderer/metadata"

type Loader interface {
	// params is loader specific, e.g. *metadata.ImageResourceParams for images.
	Load(path string, params any) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
