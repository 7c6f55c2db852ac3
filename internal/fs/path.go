package fs

import (
	"path/filepath"
	"strings"

	"github.com/gburca/rofs-filtered/internal/logging"
)

var (
	pathLogger = logging.GetLogger().WithPrefix("path")
)

// VirtualPath represents a path as seen through the filtered mount.
// All virtual paths are absolute, rooted at the mount point.
type VirtualPath struct {
	// always starts with /
	path string
}

// NewVirtualPath creates a new VirtualPath instance.
// It cleans the path and ensures it's absolute.
func NewVirtualPath(path string) *VirtualPath {
	cleaned := filepath.Clean(path)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	pathLogger.Trace("Creating new virtual path: %q -> %q", path, cleaned)
	return &VirtualPath{path: cleaned}
}

// String returns the string representation of the path
func (vp *VirtualPath) String() string {
	return vp.path
}

// Parent returns a VirtualPath representing the parent directory
func (vp *VirtualPath) Parent() *VirtualPath {
	return NewVirtualPath(filepath.Dir(vp.path))
}

// Base returns the last element of the path
func (vp *VirtualPath) Base() string {
	return filepath.Base(vp.path)
}

// Child returns the VirtualPath for a named entry of this directory
func (vp *VirtualPath) Child(name string) *VirtualPath {
	return NewVirtualPath(vp.path + "/" + name)
}

// IsRoot returns true if this is the root virtual path "/"
func (vp *VirtualPath) IsRoot() bool {
	return vp.path == "/"
}

// Translate maps a virtual path to the corresponding path in the source
// tree. It joins the two with exactly one separator and performs no other
// normalization; purely textual, same inputs always give the same output.
func Translate(sourceRoot string, vp *VirtualPath) string {
	real := strings.TrimSuffix(sourceRoot, "/") + vp.path
	pathLogger.Trace("Translating %q -> %q", vp.path, real)
	return real
}
