package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"vidnorm/internal/logging"
	"vidnorm/internal/state"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true,
	".3gp": true, ".3g2": true, ".ts": true, ".mts": true, ".m2ts": true,
	".vob": true, ".ogv": true, ".divx": true, ".xvid": true, ".rm": true,
	".rmvb": true, ".asf": true, ".f4v": true,
}

var nonVideoExtensions = map[string]bool{
	".txt": true, ".nfo": true, ".jpg": true, ".jpeg": true, ".png": true,
	".srt": true, ".sub": true, ".idx": true, ".ass": true, ".ssa": true,
}

// Scanner finds video files beneath a root directory.
type Scanner struct {
	Ignore  *regexp.Regexp
	Sniffer Sniffer
	Logger  *slog.Logger
	// SkipDirs are pruned from the walk, e.g. a scratch dir under the root.
	SkipDirs []string
}

// NewScanner compiles ignore (empty disables it) and returns a scanner.
func NewScanner(ignore string, sniffer Sniffer, logger *slog.Logger) (*Scanner, error) {
	scanner := &Scanner{Sniffer: sniffer, Logger: logging.NewComponentLogger(logger, "scan")}
	if ignore != "" {
		re, err := regexp.Compile(ignore)
		if err != nil {
			return nil, err
		}
		scanner.Ignore = re
	}
	return scanner, nil
}

// Find walks root and returns the absolute paths of video files sorted by path.
func (s *Scanner) Find(ctx context.Context, root string) ([]string, error) {
	logger := s.logger()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", logging.String("path", path), logging.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && s.skipDir(path) {
				logger.Debug("skipping directory", logging.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		if state.IsStateFile(d.Name()) {
			return nil
		}
		if s.Ignore != nil && s.Ignore.MatchString(path) {
			logger.Debug("ignoring", logging.String("path", path))
			return nil
		}
		if s.IsVideo(ctx, path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// IsVideo classifies path by extension, sniffing the MIME type when the
// extension is not conclusive. Sniff failures count as not video.
func (s *Scanner) IsVideo(ctx context.Context, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if videoExtensions[ext] {
		return true
	}
	if nonVideoExtensions[ext] || s.Sniffer == nil {
		return false
	}
	mime, err := s.Sniffer.MIMEType(ctx, path)
	if err != nil {
		s.logger().Debug("mime sniff failed", logging.String("path", path), logging.Error(err))
		return false
	}
	return strings.HasPrefix(mime, "video/")
}

func (s *Scanner) skipDir(path string) bool {
	clean := filepath.Clean(path)
	for _, dir := range s.SkipDirs {
		if dir != "" && filepath.Clean(dir) == clean {
			return true
		}
	}
	return false
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}

// Shard keeps the files whose position in the sorted list, modulo total,
// equals index. total <= 1 returns files unchanged.
func Shard(files []string, total, index int) []string {
	if total <= 1 {
		return files
	}
	out := make([]string, 0, len(files)/total+1)
	for i, file := range files {
		if i%total == index {
			out = append(out, file)
		}
	}
	return out
}
