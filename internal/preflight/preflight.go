package preflight

import (
	"context"

	"vidnorm/internal/config"
)

// MinScratchFree is the free space below which the scratch check warns.
const MinScratchFree = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes the checks a conversion run over root needs.
func RunAll(ctx context.Context, cfg *config.Config, root string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Media root", root),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
	}
	space := CheckFreeSpace("Scratch free space", cfg.Paths.ScratchDir, MinScratchFree)
	space.Optional = true
	results = append(results, space)
	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Command
		if status.Detail != "" {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}
	return results
}

// Failed returns the results of required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed && !result.Optional {
			failed = append(failed, result)
		}
	}
	return failed
}
