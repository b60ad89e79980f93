package scan

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultSniffTimeout caps a single MIME sniff.
const DefaultSniffTimeout = 5 * time.Second

// Sniffer reports a file's MIME type.
type Sniffer interface {
	MIMEType(ctx context.Context, path string) (string, error)
}

// FileSniffer asks the file(1) tool for the MIME type and falls back to
// in-process content sniffing when the tool is not installed.
type FileSniffer struct {
	Binary  string
	Timeout time.Duration
}

// NewFileSniffer returns a sniffer using binary (default "file").
func NewFileSniffer(binary string) *FileSniffer {
	return &FileSniffer{Binary: binary, Timeout: DefaultSniffTimeout}
}

// MIMEType runs `file -b --mime-type path`.
func (s *FileSniffer) MIMEType(ctx context.Context, path string) (string, error) {
	binary := strings.TrimSpace(s.Binary)
	if binary == "" {
		binary = "file"
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultSniffTimeout
	}
	sniffCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(sniffCtx, binary, "-b", "--mime-type", path)
	cmd.WaitDelay = time.Second
	output, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return ContentSniffer{}.MIMEType(ctx, path)
		}
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// ContentSniffer detects MIME types from file content signatures.
type ContentSniffer struct{}

// MIMEType inspects the leading bytes of path.
func (ContentSniffer) MIMEType(_ context.Context, path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mtype.String(), nil
}
