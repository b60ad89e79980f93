package encoding

import "vidnorm/internal/config"

// Params holds the encoder settings shared by every file in a run.
type Params struct {
	CRF              int
	Preset           string
	UseGPU           bool
	CleanupOriginals bool
	MaxRetries       int
	DryRun           bool
}

// ParamsFromConfig derives run parameters. GPU encoding is requested only
// when enabled in configuration and an NVENC-capable GPU was detected.
func ParamsFromConfig(cfg *config.Config, gpuAvailable bool) Params {
	retries := cfg.Encode.Retries
	if retries < 1 {
		retries = 1
	}
	return Params{
		CRF:              cfg.Encode.Quality,
		Preset:           cfg.Encode.Preset,
		UseGPU:           cfg.Encode.GPU && gpuAvailable,
		CleanupOriginals: cfg.Encode.Cleanup,
		MaxRetries:       retries,
		DryRun:           cfg.Encode.DryRun,
	}
}
