package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"vidnorm/internal/config"
)

const versionTimeout = 5 * time.Second

// Requirement is one external tool a run shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to the tool to read a version banner.
	VersionArgs []string
}

// Status is the resolved availability of a Requirement.
type Status struct {
	Requirement
	Path      string
	Version   string
	Available bool
	Detail    string
}

// Requirements lists the external tools used by a run with cfg.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Encodes and remuxes video", VersionArgs: []string{"-hide_banner", "-version"}},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Inspects container and stream metadata", VersionArgs: []string{"-hide_banner", "-version"}},
		{Name: "file", Command: cfg.FileBinary(), Description: "Sniffs MIME types of files without a known extension", Optional: true, VersionArgs: []string{"--version"}},
		{Name: "nvidia-smi", Command: cfg.NvidiaSMIBinary(), Description: "Detects NVIDIA GPUs for NVENC encoding", Optional: true},
	}
}

// MissingRequired filters statuses down to unavailable required tools.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status)
		}
	}
	return missing
}

// CheckBinaries resolves every requirement on PATH and, where the requirement
// names VersionArgs, captures the first line the tool prints.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results = append(results, resolve(ctx, req))
	}
	return results
}

func resolve(ctx context.Context, req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	if len(req.VersionArgs) > 0 {
		status.Version = readVersion(ctx, path, req.VersionArgs)
	}
	return status
}

// readVersion is best effort: a tool that exits non-zero on the version flag
// is still considered available.
func readVersion(ctx context.Context, path string, args []string) string {
	versionCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(versionCtx, path, args...).Output()
	if err != nil && len(out) == 0 {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
