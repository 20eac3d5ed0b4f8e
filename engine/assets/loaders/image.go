package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// CubeFaces are the file suffixes of a cube map, in the native face order.
var CubeFaces = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

/**
 * @brief ImageLoader decodes png, jpeg, bmp and tiff files to RGBA8. With
 * Cube set the path names the cube map and the six faces are read from
 * sibling files.
 */
type ImageLoader struct{}

func (il *ImageLoader) Load(path string, params any) (*metadata.Resource, error) {
	p, _ := params.(*metadata.ImageResourceParams)
	if p == nil {
		p = &metadata.ImageResourceParams{}
	}

	var (
		data *metadata.ImageResourceData
		size uint64
		err  error
	)
	if p.Cube {
		data, size, err = loadCube(path, p.FlipY)
	} else {
		var img *image.RGBA
		img, size, err = LoadRGBA(path, p.FlipY)
		if err == nil {
			data = imageData(img, 1)
		}
	}
	if err != nil {
		return nil, err
	}

	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     metadata.ResourceTypeImage,
		DataSize: size,
		Data:     data,
	}, nil
}

func (il *ImageLoader) Unload(*metadata.Resource) error {
	return nil
}

// LoadRGBA decodes one image file and converts it to RGBA8 anchored at the origin.
func LoadRGBA(path string, flipY bool) (*image.RGBA, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	src, format, err := image.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: decoding %s: %v", core.ErrUnknownResource, path, err)
	}
	core.LogDebug("decoded %s image %s", format, path)
	return ToRGBA(src, flipY), uint64(info.Size()), nil
}

// ToRGBA copies src into a new RGBA image, optionally flipping rows.
func ToRGBA(src image.Image, flipY bool) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	if flipY {
		h := dst.Rect.Dy()
		row := make([]byte, dst.Stride)
		for y := 0; y < h/2; y++ {
			top := dst.Pix[y*dst.Stride : (y+1)*dst.Stride]
			bottom := dst.Pix[(h-1-y)*dst.Stride : (h-y)*dst.Stride]
			copy(row, top)
			copy(top, bottom)
			copy(bottom, row)
		}
	}
	return dst
}

func imageData(img *image.RGBA, faces uint32) *metadata.ImageResourceData {
	return &metadata.ImageResourceData{
		ChannelCount: 4,
		Width:        uint32(img.Rect.Dx()),
		Height:       uint32(img.Rect.Dy()),
		Faces:        faces,
		Pixels:       img.Pix,
	}
}

func loadCube(path string, flipY bool) (*metadata.ImageResourceData, uint64, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	var (
		data  *metadata.ImageResourceData
		total uint64
	)
	for i, face := range CubeFaces {
		img, size, err := LoadRGBA(fmt.Sprintf("%s_%s%s", stem, face, ext), flipY)
		if err != nil {
			return nil, 0, err
		}
		total += size
		if i == 0 {
			data = imageData(img, 6)
			data.Pixels = make([]byte, 0, len(img.Pix)*6)
		} else if uint32(img.Rect.Dx()) != data.Width || uint32(img.Rect.Dy()) != data.Height {
			return nil, 0, fmt.Errorf("%w: cube face %s of %s is %dx%d, expected %dx%d",
				core.ErrUnknownResource, face, path, img.Rect.Dx(), img.Rect.Dy(), data.Width, data.Height)
		}
		data.Pixels = append(data.Pixels, img.Pix...)
	}
	return data, total, nil
}
