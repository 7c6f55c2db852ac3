package fs

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/gburca/rofs-filtered/internal/logging"
	"github.com/gburca/rofs-filtered/internal/rules"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// File represents a non-directory entry in the filtered filesystem.
type File struct {
	fs   *RoFS
	path *VirtualPath
}

func (f *File) vpath() *VirtualPath { return f.path }

// Attr implements the Node interface, returning the file's attributes.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	fileLogger.Trace("Getting attributes for file: %q", f.path.String())
	return f.fs.getattr(f.path, a)
}

// Open implements the NodeOpener interface. Any flags requesting write,
// create, exclusive-create, or truncate semantics are refused before the
// source file is touched.
func (f *File) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	real := Translate(f.fs.source, f.path)
	fileLogger.Debug("Opening file %q with flags %v", f.path.String(), req.Flags)

	info, err := os.Lstat(real)
	if err != nil {
		return nil, forwarded(OpOpen, f.path, err)
	}
	if f.fs.engine.Decide(f.path, rules.TypeOf(info.Mode())) == Hidden {
		return nil, syscall.ENOENT
	}

	if !req.Flags.IsReadOnly() ||
		req.Flags&(fuse.OpenCreate|fuse.OpenExclusive|fuse.OpenTruncate) != 0 {
		fileLogger.Warn("Attempted write access to read-only file: %q", f.path.String())
		return nil, syscall.EPERM
	}

	file, err := os.Open(real)
	if err != nil {
		return nil, forwarded(OpOpen, f.path, err)
	}

	// Keep reads hitting the source on every request instead of the page
	// cache, matching the uncached passthrough contract.
	resp.Flags |= fuse.OpenDirectIO

	fileLogger.Debug("Successfully opened file %q", f.path.String())
	return &FileHandle{file: file, path: f.path.String()}, nil
}

// Access implements the NodeAccesser interface.
func (f *File) Access(_ context.Context, req *fuse.AccessRequest) error {
	return f.fs.checkAccess(f.path, req)
}

// Fsync implements the NodeFsyncer interface. Nothing is ever dirty.
func (f *File) Fsync(_ context.Context, _ *fuse.FsyncRequest) error {
	return nil
}

// Setattr implements the NodeSetattrer interface. The mount is read-only.
func (f *File) Setattr(_ context.Context, _ *fuse.SetattrRequest, _ *fuse.SetattrResponse) error {
	return f.fs.denyMutation(f.path)
}

// Getxattr implements the NodeGetxattrer interface.
func (f *File) Getxattr(_ context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	return f.fs.getxattr(f.path, req, resp)
}

// Listxattr implements the NodeListxattrer interface.
func (f *File) Listxattr(_ context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	return f.fs.listxattr(f.path, req, resp)
}

// Setxattr implements the NodeSetxattrer interface. The mount is read-only.
func (f *File) Setxattr(_ context.Context, _ *fuse.SetxattrRequest) error {
	return f.fs.denyMutation(f.path)
}

// Removexattr implements the NodeRemovexattrer interface. The mount is read-only.
func (f *File) Removexattr(_ context.Context, _ *fuse.RemovexattrRequest) error {
	return f.fs.denyMutation(f.path)
}

// Symlink represents a symbolic link in the filtered filesystem.
type Symlink struct {
	fs   *RoFS
	path *VirtualPath
}

func (s *Symlink) vpath() *VirtualPath { return s.path }

// Attr implements the Node interface, returning the link's attributes.
func (s *Symlink) Attr(_ context.Context, a *fuse.Attr) error {
	fileLogger.Trace("Getting attributes for symlink: %q", s.path.String())
	return s.fs.getattr(s.path, a)
}

// Access implements the NodeAccesser interface.
func (s *Symlink) Access(_ context.Context, req *fuse.AccessRequest) error {
	return s.fs.checkAccess(s.path, req)
}

// Readlink implements the NodeReadlinker interface. The decision is
// evaluated with the symlink tag before the source is consulted.
func (s *Symlink) Readlink(_ context.Context, _ *fuse.ReadlinkRequest) (string, error) {
	fileLogger.Debug("Reading symlink: %q", s.path.String())

	if s.fs.engine.Decide(s.path, rules.TypeSymlink) == Hidden {
		return "", syscall.ENOENT
	}

	target, err := os.Readlink(Translate(s.fs.source, s.path))
	if err != nil {
		return "", forwarded(OpReadlink, s.path, err)
	}
	return target, nil
}

// Getxattr implements the NodeGetxattrer interface.
func (s *Symlink) Getxattr(_ context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	return s.fs.getxattr(s.path, req, resp)
}

// Listxattr implements the NodeListxattrer interface.
func (s *Symlink) Listxattr(_ context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	return s.fs.listxattr(s.path, req, resp)
}

// Setxattr implements the NodeSetxattrer interface. The mount is read-only.
func (s *Symlink) Setxattr(_ context.Context, _ *fuse.SetxattrRequest) error {
	return s.fs.denyMutation(s.path)
}

// Removexattr implements the NodeRemovexattrer interface. The mount is read-only.
func (s *Symlink) Removexattr(_ context.Context, _ *fuse.RemovexattrRequest) error {
	return s.fs.denyMutation(s.path)
}

// FileHandle manages an open read-only descriptor from the source tree.
type FileHandle struct {
	file *os.File
	path string // For logging purposes
}

// Read implements the HandleReader interface, reading data from the file.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fileLogger.Trace("Reading %d bytes from file %q at offset %d",
		req.Size, fh.path, req.Offset)

	resp.Data = make([]byte, req.Size)
	n, err := fh.file.ReadAt(resp.Data, req.Offset)
	if err != nil && err != io.EOF {
		fileLogger.Error("Failed to read from file %q: %v", fh.path, err)
		return toErrno(err)
	}

	resp.Data = resp.Data[:n]
	fileLogger.Trace("Successfully read %d bytes", n)
	return nil
}

// Write implements the HandleWriter interface. The mount is read-only, so
// this is never reachable through a handle we issue, but the contract is
// explicit anyway.
func (fh *FileHandle) Write(_ context.Context, _ *fuse.WriteRequest, _ *fuse.WriteResponse) error {
	fileLogger.Warn("Refusing write to read-only file: %q", fh.path)
	return syscall.EPERM
}

// Release implements the HandleReleaser interface, closing the descriptor.
func (fh *FileHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	fileLogger.Debug("Closing file %q", fh.path)
	return fh.file.Close()
}
