package state

import (
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Status is the recorded outcome for a file.
type Status string

const (
	StatusCompatible Status = "compatible"
	StatusConverted  Status = "converted"
	StatusFailed     Status = "failed"
)

// Done reports whether the status means no further work is needed.
func (s Status) Done() bool {
	return s == StatusCompatible || s == StatusConverted
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCompatible, StatusConverted, StatusFailed:
		return true
	}
	return false
}

// Record is the persisted state of one file.
type Record struct {
	MTime  float64 `json:"mtime"`
	Size   int64   `json:"size"`
	Status Status  `json:"status"`
}

// Entry pairs a record with its absolute path.
type Entry struct {
	Path string
	Record
}

// File names kept at the processing root.
const (
	DocumentName = ".transcode_state.json"
	LockName     = DocumentName + ".lock"
	DatabaseName = ".transcode_state.db"
)

// IsStateFile reports whether name (a base name) belongs to the state store
// and must never be treated as media.
func IsStateFile(name string) bool {
	switch name {
	case DocumentName, LockName, DatabaseName:
		return true
	}
	if strings.HasPrefix(name, DocumentName+".tmp") {
		return true
	}
	return strings.HasPrefix(name, DatabaseName+"-")
}

// mtimeTolerance absorbs float rounding between writers that derive
// fractional seconds differently.
const mtimeTolerance = 1e-6

// Matches reports whether the record still describes info.
func (r Record) Matches(info os.FileInfo) bool {
	return r.Size == info.Size() && math.Abs(r.MTime-modTimeSeconds(info)) <= mtimeTolerance
}

func modTimeSeconds(info os.FileInfo) float64 {
	return float64(info.ModTime().UnixNano()) / 1e9
}

func recordFor(info os.FileInfo, status Status) Record {
	return Record{MTime: modTimeSeconds(info), Size: info.Size(), Status: status}
}

func cleanKey(path string) string {
	return filepath.Clean(path)
}
