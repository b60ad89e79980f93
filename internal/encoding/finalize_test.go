package encoding

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vidnorm/internal/fileutil"
	"vidnorm/internal/services"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestFinalizeCleanupNonMP4(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "lib", "movie.mkv")
	temp := filepath.Join(dir, "scratch", "movie.abc.mp4")
	writeFile(t, input, "source")
	writeFile(t, temp, "encoded")

	final, err := finalize(input, temp, true, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final != filepath.Join(dir, "lib", "movie.mp4") {
		t.Fatalf("unexpected final path: %s", final)
	}
	if fileutil.Exists(input) || fileutil.Exists(temp) {
		t.Fatal("expected source and temp removed")
	}
	if readFile(t, final) != "encoded" {
		t.Fatal("unexpected final content")
	}
}

func TestFinalizeCleanupMP4ReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "movie.mp4")
	temp := filepath.Join(dir, "scratch", "movie.abc.mp4")
	writeFile(t, input, "source")
	writeFile(t, temp, "encoded")

	final, err := finalize(input, temp, true, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final != input {
		t.Fatalf("expected in-place replacement, got %s", final)
	}
	if readFile(t, input) != "encoded" {
		t.Fatal("expected source replaced by encoded output")
	}
}

func TestFinalizeCleanupUppercaseMP4RemovesOriginal(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "movie.MP4")
	temp := filepath.Join(dir, "scratch", "movie.abc.mp4")
	writeFile(t, input, "source")
	writeFile(t, temp, "encoded")

	final, err := finalize(input, temp, true, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final != filepath.Join(dir, "movie.mp4") {
		t.Fatalf("unexpected final path: %s", final)
	}
	if fileutil.Exists(input) {
		t.Fatal("expected differently named original removed")
	}
}

func TestFinalizeKeepsOriginalAndAvoidsCollision(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "movie.mkv")
	existing := filepath.Join(dir, "movie.mp4")
	temp := filepath.Join(dir, "scratch", "movie.abc.mp4")
	writeFile(t, input, "source")
	writeFile(t, existing, "other")
	writeFile(t, temp, "encoded")

	final, err := finalize(input, temp, false, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final != filepath.Join(dir, "movie_converted.mp4") {
		t.Fatalf("unexpected final path: %s", final)
	}
	if readFile(t, input) != "source" || readFile(t, existing) != "other" {
		t.Fatal("expected original and existing output untouched")
	}
}

func TestFinalizeKeepsOriginalWithoutCollision(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.avi")
	temp := filepath.Join(dir, "scratch", "clip.abc.mp4")
	writeFile(t, input, "source")
	writeFile(t, temp, "encoded")

	final, err := finalize(input, temp, false, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final != filepath.Join(dir, "clip.mp4") {
		t.Fatalf("unexpected final path: %s", final)
	}
	if !fileutil.Exists(input) {
		t.Fatal("expected original kept")
	}
}

func TestFinalizeMoveFailureIsIOFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.avi")
	writeFile(t, input, "source")

	_, err := finalize(input, filepath.Join(dir, "scratch", "missing.mp4"), false, nil)
	if !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
	if services.Retryable(err) {
		t.Fatal("io failures must not be retried")
	}
}

func TestFinalizeBlockedDestinationKeepsSource(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "movie.mkv")
	temp := filepath.Join(dir, "scratch", "movie.abc.mp4")
	writeFile(t, input, "source")
	writeFile(t, temp, "encoded")
	// A non-empty directory at the destination makes the rename fail.
	writeFile(t, filepath.Join(dir, "movie.mp4", "occupied"), "x")

	_, err := finalize(input, temp, true, nil)
	if !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
	if readFile(t, input) != "source" {
		t.Fatal("expected original kept after failed move")
	}
}

func TestFinalizeWithoutCleanupNeverReplacesMP4Source(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "hevc.mp4")
	temp := filepath.Join(dir, "scratch", "hevc.abc.mp4")
	writeFile(t, input, "source")
	writeFile(t, temp, "encoded")

	final, err := finalize(input, temp, false, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final != filepath.Join(dir, "hevc_converted.mp4") {
		t.Fatalf("unexpected final path: %s", final)
	}
	if readFile(t, input) != "source" || readFile(t, final) != "encoded" {
		t.Fatal("expected original untouched and output beside it")
	}
}

func TestOutputClaimsSeparateSameStem(t *testing.T) {
	dir := t.TempDir()
	claims := NewOutputClaims()
	inputs := []string{filepath.Join(dir, "show.mkv"), filepath.Join(dir, "show.avi"), filepath.Join(dir, "show.mov")}

	got := make([]string, len(inputs))
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = claims.Claim(input, true)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, path := range got {
		if seen[path] {
			t.Fatalf("output %s handed out twice: %v", path, got)
		}
		seen[path] = true
	}
	for _, want := range []string{"show.mp4", "show_converted.mp4", "show_converted2.mp4"} {
		if !seen[filepath.Join(dir, want)] {
			t.Fatalf("expected %s among %v", want, got)
		}
	}
}

func TestOutputClaimsRespectReservedInputs(t *testing.T) {
	dir := t.TempDir()
	queued := filepath.Join(dir, "show.mp4")
	other := filepath.Join(dir, "show.mkv")
	claims := NewOutputClaims()
	claims.Reserve([]string{queued, other})

	if got := claims.Claim(other, true); got != filepath.Join(dir, "show_converted.mp4") {
		t.Fatalf("expected queued input left alone, got %s", got)
	}
	if got := claims.Claim(queued, true); got != queued {
		t.Fatalf("expected in-place output for the reserved input, got %s", got)
	}
	if got := claims.Claim(other, true); got != filepath.Join(dir, "show_converted.mp4") {
		t.Fatalf("expected repeat claim to be stable, got %s", got)
	}
}

func TestNilOutputClaimsUseFinalPath(t *testing.T) {
	var claims *OutputClaims
	claims.Reserve([]string{"/lib/a.mkv"})
	for _, cleanup := range []bool{true, false} {
		input := fmt.Sprintf("/lib/missing-%t.mkv", cleanup)
		if got, want := claims.Claim(input, cleanup), FinalPath(input, cleanup); got != want {
			t.Fatalf("Claim = %s, want %s", got, want)
		}
	}
}
