package gfx

import "github.com/cogentcore/webgpu/wgpu"

// Image wraps a wgpu texture, view, and the extent/format it was created
// with — grounded on createTextureFromAsset (gpu_operations.go).
type Image struct {
	Raw *wgpu.Texture
	View *wgpu.TextureView
	Extent wgpu.Extent3D
	Format wgpu.TextureFormat
	Mips uint32
}

type ImageDesc struct {
	Label string
	Width uint32
	Height uint32
	Depth uint32
	Mips uint32
	Format wgpu.TextureFormat
	Usage wgpu.TextureUsage
}

func (d *Device) CreateImage(desc ImageDesc) (*Image, error) {
	extent := wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: max1(desc.Depth)}
	mips := max1(desc.Mips)

	raw, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: extent,
		MipLevelCount: mips,
		SampleCount: 1,
		Dimension: wgpu.TextureDimension2D,
		Format: desc.Format,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create image "+desc.Label, err)
	}

	view, err := raw.CreateView(nil)
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create image view "+desc.Label, err)
	}

	return &Image{Raw: raw, View: view, Extent: extent, Format: desc.Format, Mips: mips}, nil
}

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

// WriteImage uploads texel data into a single mip level, mirroring
// gpu_operations.go's queue.WriteTexture call.
func (d *Device) WriteImage(img *Image, mipLevel uint32, data []byte, bytesPerRow, rowsPerImage uint32, extent wgpu.Extent3D) error {
	err := d.queue.WriteTexture(
		img.Raw.AsImageCopy(),
		data,
		&wgpu.TextureDataLayout{
			Offset: 0,
			BytesPerRow: bytesPerRow,
			RowsPerImage: rowsPerImage,
		},
		&extent,
	)
	if err != nil {
		return newErr(KindOther, "write image", err)
	}
	return nil
}

func (img *Image) Release() {
	if img.View != nil {
		img.View.Release()
	}
	if img.Raw != nil {
		img.Raw.Release()
	}
}

// Sampler wraps a wgpu sampler plus the descriptor it was built from, so the
// texture package's LRU cache can key on filter/anisotropy settings.
type Sampler struct {
	Raw *wgpu.Sampler
	Desc SamplerDesc
}

// SamplerDesc is a comparable key over the fields the texture package's LRU
// sampler cache varies: anisotropy and wrap mode.
type SamplerDesc struct {
	AddressMode wgpu.AddressMode
	MaxAnisotropy uint16
}

func (d *Device) CreateSampler(desc SamplerDesc) (*Sampler, error) {
	raw, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU: desc.AddressMode,
		AddressModeV: desc.AddressMode,
		AddressModeW: desc.AddressMode,
		MagFilter: wgpu.FilterModeLinear,
		MinFilter: wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
		LodMinClamp: 0,
		LodMaxClamp: 32,
		Compare: wgpu.CompareFunctionUndefined,
		MaxAnisotropy: desc.MaxAnisotropy,
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create sampler", err)
	}
	return &Sampler{Raw: raw, Desc: desc}, nil
}

func (s *Sampler) Release() {
	if s.Raw != nil {
		s.Raw.Release()
	}
}
