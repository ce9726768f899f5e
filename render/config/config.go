// Package config loads the host-tunable factory configuration from a TOML
// file, applying defaults before decode so a partial file is legal.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Anisotropy is the sampler anisotropic-filtering level.
type Anisotropy string

const (
	AnisotropyNone Anisotropy = "none"
	Anisotropy2x Anisotropy = "x2"
	Anisotropy4x Anisotropy = "x4"
	Anisotropy8x Anisotropy = "x8"
	Anisotropy16x Anisotropy = "x16"
)

func (a Anisotropy) Samples() int {
	switch a {
	case Anisotropy2x:
		return 2
	case Anisotropy4x:
		return 4
	case Anisotropy8x:
		return 8
	case Anisotropy16x:
		return 16
	default:
		return 1
	}
}

// MeshPoolCapacities is the initial vertex/index/meshlet capacity for one
// vertex layout's mesh pool.
type MeshPoolCapacities struct {
	Vertices int `toml:"vertices"`
	Indices int `toml:"indices"`
	Meshlets int `toml:"meshlets"`
}

// FactoryConfig enumerates every host-tunable factory option.
type FactoryConfig struct {
	FramesInFlight uint32 `toml:"frames_in_flight"`
	MaxTextures uint32 `toml:"max_textures"`
	MaxTexturesPerMaterial uint32 `toml:"max_textures_per_material"`
	DefaultTexturesCapacity uint32 `toml:"default_textures_capacity"`
	DefaultMaterialsCapacityBySize map[uint64]uint32 `toml:"default_materials_capacity_by_data_size"`
	FallbackMaterialsCapacity uint32 `toml:"fallback_materials_capacity"`
	MeshPoolInitialCapacities map[string]MeshPoolCapacities `toml:"mesh_pool_initial_capacities"`
	StagingUploadBudgetBytes uint64 `toml:"staging_upload_budget_bytes"`
	Anisotropy Anisotropy `toml:"anisotropy"`
	SamplerCacheSize int `toml:"sampler_cache_size"`
	PipelineCacheSize int `toml:"pipeline_cache_size"`
}

// Default returns the configuration the factories are built
// against when no TOML file is supplied: 3 frames in flight, 4 MiB staging
// budget, and generously small initial pools so a
// fresh app doesn't pre-allocate GPU memory it may not need.
func Default() FactoryConfig {
	return FactoryConfig{
		FramesInFlight: 3,
		MaxTextures: 4096,
		MaxTexturesPerMaterial: 8,
		DefaultTexturesCapacity: 256,
		DefaultMaterialsCapacityBySize: map[uint64]uint32{},
		FallbackMaterialsCapacity: 64,
		MeshPoolInitialCapacities: map[string]MeshPoolCapacities{},
		StagingUploadBudgetBytes: 4 * 1024 * 1024,
		Anisotropy: AnisotropyNone,
		SamplerCacheSize: 128,
		PipelineCacheSize: 256,
	}
}

// Load reads a TOML file at path, decoding on top of Default() so omitted
// keys keep their default value.
func Load(path string) (FactoryConfig, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FactoryConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
