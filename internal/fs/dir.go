package fs

import (
	"context"
	"os"
	"syscall"

	"github.com/gburca/rofs-filtered/internal/logging"
	"github.com/gburca/rofs-filtered/internal/rules"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir represents a directory in the filtered filesystem. Every instance
// is a thin handle over the virtual path; all state lives in RoFS.
type Dir struct {
	fs   *RoFS
	path *VirtualPath
}

func (d *Dir) vpath() *VirtualPath { return d.path }

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.path.String())
	return d.fs.getattr(d.path, a)
}

// Lookup implements the NodeStringLookuper interface, finding a child
// node. The underlying metadata fetch runs first and its error wins; the
// filter decision is evaluated with the type that fetch reported.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	childPath := d.path.Child(name)
	dirLogger.Debug("Looking up %q in directory %q", name, d.path.String())

	info, err := os.Lstat(Translate(d.fs.source, childPath))
	if err != nil {
		return nil, forwarded(OpLookup, childPath, err)
	}

	typ := rules.TypeOf(info.Mode())
	if d.fs.engine.Decide(childPath, typ) == Hidden {
		dirLogger.Debug("Hiding path: %q", childPath.String())
		return nil, syscall.ENOENT
	}

	switch typ {
	case rules.TypeDirectory:
		return &Dir{fs: d.fs, path: childPath}, nil
	case rules.TypeSymlink:
		return &Symlink{fs: d.fs, path: childPath}, nil
	default:
		return &File{fs: d.fs, path: childPath}, nil
	}
}

// ReadDirAll implements the HandleReadDirAller interface. Hidden entries
// are skipped; the relative order of the remaining entries is preserved.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.path.String())

	if d.fs.engine.Decide(d.path, rules.TypeRegular) == Hidden {
		return nil, syscall.ENOENT
	}

	real := Translate(d.fs.source, d.path)
	f, err := os.Open(real)
	if err != nil {
		return nil, forwarded(OpReadDir, d.path, err)
	}
	names, err := f.Readdirnames(-1)
	f.Close()
	if err != nil {
		return nil, forwarded(OpReadDir, d.path, err)
	}

	dirEntries := make([]fuse.Dirent, 0, len(names))
	for _, name := range names {
		childPath := d.path.Child(name)

		// An entry whose metadata cannot be fetched is still decided, with
		// the unknown tag, rather than dropped.
		typ := rules.TypeUnknown
		if info, err := os.Lstat(Translate(d.fs.source, childPath)); err == nil {
			typ = rules.TypeOf(info.Mode())
		}

		if d.fs.engine.Decide(childPath, typ) == Hidden {
			dirLogger.Trace("Hiding entry: %q", childPath.String())
			continue
		}

		dirEntries = append(dirEntries, fuse.Dirent{
			Name: name,
			Type: direntType(typ),
		})
	}

	dirLogger.Debug("Directory %q contains %d visible entries",
		d.path.String(), len(dirEntries))
	return dirEntries, nil
}

// Access implements the NodeAccesser interface.
func (d *Dir) Access(_ context.Context, req *fuse.AccessRequest) error {
	return d.fs.checkAccess(d.path, req)
}

// Mkdir implements the NodeMkdirer interface. The mount is read-only.
func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	dirLogger.Debug("Refusing mkdir %q in %q", req.Name, d.path.String())
	return nil, syscall.EPERM
}

// Create implements the NodeCreater interface. The mount is read-only.
func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, _ *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	dirLogger.Debug("Refusing create %q in %q", req.Name, d.path.String())
	return nil, nil, syscall.EPERM
}

// Mknod implements the NodeMknoder interface. The mount is read-only.
func (d *Dir) Mknod(_ context.Context, req *fuse.MknodRequest) (fusefs.Node, error) {
	dirLogger.Debug("Refusing mknod %q in %q", req.Name, d.path.String())
	return nil, syscall.EPERM
}

// Symlink implements the NodeSymlinker interface. The mount is read-only.
func (d *Dir) Symlink(_ context.Context, req *fuse.SymlinkRequest) (fusefs.Node, error) {
	dirLogger.Debug("Refusing symlink %q in %q", req.NewName, d.path.String())
	return nil, syscall.EPERM
}

// Remove implements the NodeRemover interface. The mount is read-only.
func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	dirLogger.Debug("Refusing remove %q in %q", req.Name, d.path.String())
	return syscall.EPERM
}

// Rename implements the NodeRenamer interface. A hidden source reports
// not-found; a visible one is refused because the mount is read-only.
func (d *Dir) Rename(_ context.Context, req *fuse.RenameRequest, _ fusefs.Node) error {
	dirLogger.Debug("Refusing rename %q in %q", req.OldName, d.path.String())
	return d.fs.denyMutation(d.path.Child(req.OldName))
}

// Link implements the NodeLinker interface. A hidden target reports
// not-found; a visible one is refused because the mount is read-only.
func (d *Dir) Link(_ context.Context, _ *fuse.LinkRequest, old fusefs.Node) (fusefs.Node, error) {
	if n, ok := old.(interface{ vpath() *VirtualPath }); ok {
		return nil, d.fs.denyMutation(n.vpath())
	}
	return nil, syscall.EPERM
}

// Setattr implements the NodeSetattrer interface. The mount is read-only.
func (d *Dir) Setattr(_ context.Context, _ *fuse.SetattrRequest, _ *fuse.SetattrResponse) error {
	return d.fs.denyMutation(d.path)
}

// Getxattr implements the NodeGetxattrer interface.
func (d *Dir) Getxattr(_ context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	return d.fs.getxattr(d.path, req, resp)
}

// Listxattr implements the NodeListxattrer interface.
func (d *Dir) Listxattr(_ context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	return d.fs.listxattr(d.path, req, resp)
}

// Setxattr implements the NodeSetxattrer interface. The mount is read-only.
func (d *Dir) Setxattr(_ context.Context, _ *fuse.SetxattrRequest) error {
	return d.fs.denyMutation(d.path)
}

// Removexattr implements the NodeRemovexattrer interface. The mount is read-only.
func (d *Dir) Removexattr(_ context.Context, _ *fuse.RemovexattrRequest) error {
	return d.fs.denyMutation(d.path)
}

func direntType(typ rules.FileType) fuse.DirentType {
	switch typ {
	case rules.TypeDirectory:
		return fuse.DT_Dir
	case rules.TypeRegular:
		return fuse.DT_File
	case rules.TypeSymlink:
		return fuse.DT_Link
	case rules.TypeCharDevice:
		return fuse.DT_Char
	case rules.TypeBlockDevice:
		return fuse.DT_Block
	case rules.TypeFifo:
		return fuse.DT_FIFO
	case rules.TypeSocket:
		return fuse.DT_Socket
	default:
		return fuse.DT_Unknown
	}
}
