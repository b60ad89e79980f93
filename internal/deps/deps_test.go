package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vidnorm/internal/config"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present", "echo ''\necho 'present version 6.1'\n")
	reqs := []Requirement{
		{Name: "Present", Command: present, VersionArgs: []string{"-version"}},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[0].Path != present || results[0].Version != "present version 6.1" {
		t.Fatalf("unexpected path/version: %q %q", results[0].Path, results[0].Version)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestRequirementsAndMissingRequired(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFmpeg = "clearly-missing-ffmpeg"
	cfg.Tools.NvidiaSMI = "clearly-missing-nvidia-smi"

	statuses := CheckBinaries(context.Background(), Requirements(&cfg))
	missing := MissingRequired(statuses)
	found := false
	for _, status := range missing {
		if status.Optional {
			t.Fatalf("optional dependency reported as required: %s", status.Name)
		}
		if status.Name == "FFmpeg" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected FFmpeg in missing list, got %+v", missing)
	}
}

func TestDetectGPUFromNvidiaSMI(t *testing.T) {
	dir := t.TempDir()
	smi := writeStub(t, dir, "nvidia-smi", "echo 'NVIDIA GeForce RTX 3060'\necho 'NVIDIA T4'\n")
	info := DetectGPU(context.Background(), smi, filepath.Join(dir, "missing-ffmpeg"), nil)
	if !info.Available || info.Name != "NVIDIA GeForce RTX 3060" || info.Source != "nvidia-smi" {
		t.Fatalf("unexpected gpu info: %+v", info)
	}
}

func TestDetectGPUFallsBackToEncoderList(t *testing.T) {
	dir := t.TempDir()
	smi := writeStub(t, dir, "nvidia-smi", "exit 9\n")
	ffmpeg := writeStub(t, dir, "ffmpeg", "echo ' V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)'\n")
	info := DetectGPU(context.Background(), smi, ffmpeg, nil)
	if !info.Available || info.Source != "ffmpeg-encoders" {
		t.Fatalf("unexpected gpu info: %+v", info)
	}
}

func TestDetectGPUNone(t *testing.T) {
	dir := t.TempDir()
	smi := writeStub(t, dir, "nvidia-smi", "echo ''\n")
	ffmpeg := writeStub(t, dir, "ffmpeg", "echo ' V....D libx264 H.264'\n")
	if info := DetectGPU(context.Background(), smi, ffmpeg, nil); info.Available {
		t.Fatalf("expected no gpu, got %+v", info)
	}
}
