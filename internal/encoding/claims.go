package encoding

import (
	"fmt"
	"path/filepath"
	"sync"

	"vidnorm/internal/fileutil"
)

// OutputClaims hands out final output paths for one run. A path claimed by
// one input is never handed to another, so concurrent workers finishing
// show.mkv and show.avi cannot both land on show.mp4. All methods are
// goroutine-safe and a nil *OutputClaims falls back to FinalPath.
type OutputClaims struct {
	mu     sync.Mutex
	owners map[string]string
}

// NewOutputClaims returns an empty claim set.
func NewOutputClaims() *OutputClaims {
	return &OutputClaims{owners: make(map[string]string)}
}

// Reserve marks each input path as owned by itself, so no other input's
// output may replace a file that is still queued in this run.
func (c *OutputClaims) Reserve(inputs []string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, input := range inputs {
		input = filepath.Clean(input)
		if _, ok := c.owners[input]; !ok {
			c.owners[input] = input
		}
	}
}

// Claim resolves and reserves the destination for input.
func (c *OutputClaims) Claim(input string, cleanup bool) string {
	if c == nil {
		return FinalPath(input, cleanup)
	}
	input = filepath.Clean(input)
	c.mu.Lock()
	defer c.mu.Unlock()
	final := resolveFinalPath(input, cleanup, func(path string) bool {
		owner, ok := c.owners[path]
		return ok && owner != input
	})
	c.owners[final] = input
	return final
}

// FinalPath returns the destination for the converted output of input.
// With cleanup the output is parent/stem.mp4. Without cleanup the original
// is never replaced: stem.mp4 is used only when it is a different, absent
// file, otherwise stem_converted.mp4.
func FinalPath(input string, cleanup bool) string {
	return resolveFinalPath(filepath.Clean(input), cleanup, func(string) bool { return false })
}

func resolveFinalPath(input string, cleanup bool, taken func(string) bool) string {
	final := defaultFinalPath(input)
	if !taken(final) {
		if cleanup {
			return final
		}
		if final != input && !fileutil.Exists(final) {
			return final
		}
	}
	for n := 1; ; n++ {
		candidate := alternateFinalPath(input, n)
		if candidate != input && !taken(candidate) {
			return candidate
		}
	}
}

func alternateFinalPath(input string, n int) string {
	suffix := convertedSuffix
	if n > 1 {
		suffix = fmt.Sprintf("%s%d", convertedSuffix, n)
	}
	return filepath.Join(filepath.Dir(input), stemOf(input)+suffix+".mp4")
}
