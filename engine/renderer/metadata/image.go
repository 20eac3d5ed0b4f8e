package metadata

/**
 * @brief A structure to hold image resource data. Pixels are always RGBA8,
 * faces of a cube map are stored one after the other.
 */
type ImageResourceData struct {
	/** @brief The number of channels. */
	ChannelCount uint8
	/** @brief The width of one face. */
	Width uint32
	/** @brief The height of one face. */
	Height uint32
	/** @brief Six for cube maps, one otherwise. */
	Faces uint32
	/** @brief The pixel data of the image. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
	/** @brief Loads six face images named <name>_{px,nx,py,ny,pz,nz}.<ext> as a cube map. */
	Cube bool
}

// TextureDesc describes the image as an RGBA8 texture resource.
func (d *ImageResourceData) TextureDesc(name string) ResourceDesc {
	return ResourceDesc{
		Name:      name,
		Width:     d.Width,
		Height:    d.Height,
		Depth:     1,
		MipLevels: 1,
		Format:    FormatR8G8B8A8Unorm,
		Cube:      d.Faces == 6,
	}
}
