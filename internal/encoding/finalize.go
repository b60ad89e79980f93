package encoding

import (
	"path/filepath"
	"strings"

	"vidnorm/internal/fileutil"
	"vidnorm/internal/services"
)

const convertedSuffix = "_converted"

func defaultFinalPath(input string) string {
	return filepath.Join(filepath.Dir(input), stemOf(input)+".mp4")
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// finalize moves a successful temp output into place next to input and
// applies the cleanup policy. The source is only removed once the output
// is in place, so a failed move leaves the original untouched.
func finalize(input, temp string, cleanup bool, outputs *OutputClaims) (string, error) {
	final := outputs.Claim(input, cleanup)

	if err := fileutil.MoveFile(temp, final); err != nil {
		_ = fileutil.RemoveIfExists(temp)
		return "", services.Wrap(services.ErrIOFailure, "finalize", "move output", final, err)
	}
	if cleanup && filepath.Clean(input) != final {
		if err := fileutil.RemoveIfExists(input); err != nil {
			return final, services.Wrap(services.ErrIOFailure, "finalize", "remove original", input, err)
		}
	}
	return final, nil
}
