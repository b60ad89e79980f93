package deps

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"vidnorm/internal/logging"
)

const (
	gpuQueryTimeout    = 5 * time.Second
	encoderListTimeout = 10 * time.Second
	nvencEncoder       = "h264_nvenc"
)

// GPUInfo describes how NVENC availability was established.
type GPUInfo struct {
	Available bool
	// Name is the first GPU reported by nvidia-smi, when it answered.
	Name string
	// Source is "nvidia-smi", "ffmpeg-encoders", or empty when unavailable.
	Source string
}

// DetectGPU asks nvidia-smi for a GPU name and, failing that, checks whether
// ffmpeg was built with the NVENC H.264 encoder. Missing tools and timeouts
// count as no GPU.
func DetectGPU(ctx context.Context, nvidiaSMI, ffmpeg string, logger *slog.Logger) GPUInfo {
	logger = logging.NewComponentLogger(logger, "deps")

	if name, ok := queryGPUName(ctx, nvidiaSMI); ok {
		logger.Info("gpu detected", logging.String("gpu", name))
		return GPUInfo{Available: true, Name: name, Source: "nvidia-smi"}
	}
	if hasNVENC(ctx, ffmpeg) {
		logger.Info("nvenc encoder available")
		return GPUInfo{Available: true, Source: "ffmpeg-encoders"}
	}
	logger.Info("no gpu detected, using cpu encoding")
	return GPUInfo{}
}

func queryGPUName(ctx context.Context, binary string) (string, bool) {
	if strings.TrimSpace(binary) == "" {
		binary = "nvidia-smi"
	}
	queryCtx, cancel := context.WithTimeout(ctx, gpuQueryTimeout)
	defer cancel()
	cmd := exec.CommandContext(queryCtx, binary, "--query-gpu=name", "--format=csv,noheader")
	cmd.WaitDelay = time.Second
	output, err := cmd.Output()
	if err != nil {
		return "", false
	}
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return "", false
	}
	first, _, _ := strings.Cut(trimmed, "\n")
	return strings.TrimSpace(first), true
}

func hasNVENC(ctx context.Context, binary string) bool {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	listCtx, cancel := context.WithTimeout(ctx, encoderListTimeout)
	defer cancel()
	cmd := exec.CommandContext(listCtx, binary, "-hide_banner", "-encoders")
	cmd.WaitDelay = time.Second
	output, _ := cmd.Output()
	return strings.Contains(string(output), nvencEncoder)
}
