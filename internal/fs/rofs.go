package fs

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/gburca/rofs-filtered/internal/logging"
	"github.com/gburca/rofs-filtered/internal/rules"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"golang.org/x/sys/unix"
)

var (
	mountLogger = logging.GetLogger().WithPrefix("mount")
)

// RoFS is the filtered read-only passthrough filesystem. It exposes the
// source directory through the mount point, forwarding reads and hiding
// entries per the rule set. All fields are set at construction and never
// change, so concurrent requests need no coordination.
type RoFS struct {
	source string     // Root directory of the source tree
	engine *Engine    // Filter decision engine
	conn   *fuse.Conn // FUSE connection
	done   chan struct{}
	uid    uint32 // Fallback owner for nodes without stat data
	gid    uint32
}

// NewRoFS creates the filesystem for the given source directory and rules.
// The source directory must exist and be readable.
func NewRoFS(sourceDir string, rs *rules.RuleSet) (*RoFS, error) {
	mountLogger.Debug("Creating filesystem for source: %s", sourceDir)

	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path is not a directory: %s", sourceDir)
	}
	if _, err := os.ReadDir(sourceDir); err != nil {
		return nil, fmt.Errorf("source directory not readable: %w", err)
	}

	return &RoFS{
		source: sourceDir,
		engine: NewEngine(sourceDir, rs),
		uid:    safeIntToUint32(os.Getuid()),
		gid:    safeIntToUint32(os.Getgid()),
	}, nil
}

// Root implements the fusefs.FS interface, returning the root directory node.
func (r *RoFS) Root() (fusefs.Node, error) {
	mountLogger.Trace("Getting root directory node")
	return &Dir{fs: r, path: NewVirtualPath("/")}, nil
}

// Statfs forwards filesystem statistics from the source tree.
func (r *RoFS) Statfs(_ context.Context, _ *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	mountLogger.Trace("Statfs for source: %s", r.source)

	var st unix.Statfs_t
	if err := unix.Statfs(r.source, &st); err != nil {
		return forwarded(OpStatfs, NewVirtualPath("/"), err)
	}

	resp.Blocks = st.Blocks
	resp.Bfree = st.Bfree
	resp.Bavail = st.Bavail
	resp.Files = st.Files
	resp.Ffree = st.Ffree
	resp.Bsize = uint32(st.Bsize)
	resp.Namelen = uint32(st.Namelen)
	resp.Frsize = uint32(st.Frsize)
	return nil
}

// getattr is the shared metadata fetch: the underlying lstat runs first
// and its error wins; only then is the hide decision evaluated with the
// type the lstat reported. Write bits are stripped from the reported mode
// unless configured otherwise.
func (r *RoFS) getattr(vp *VirtualPath, a *fuse.Attr) error {
	real := Translate(r.source, vp)
	info, err := os.Lstat(real)
	if err != nil {
		return forwarded(OpGetattr, vp, err)
	}

	if r.engine.Decide(vp, rules.TypeOf(info.Mode())) == Hidden {
		return syscall.ENOENT
	}

	mode := info.Mode()
	if !r.engine.Rules().PreservePerms {
		// Remove write permissions = chmod a-w
		mode &^= 0222
	}

	a.Mode = mode
	a.Size = safeInt64ToUint64(info.Size())
	a.Mtime = info.ModTime()

	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		a.Inode = st.Ino
		a.Nlink = uint32(st.Nlink)
		a.Uid = st.Uid
		a.Gid = st.Gid
		a.Rdev = uint32(st.Rdev)
		a.Atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		a.Ctime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
		a.Blocks = safeInt64ToUint64(st.Blocks)
		a.BlockSize = uint32(st.Blksize)
	} else {
		a.Uid = r.uid
		a.Gid = r.gid
		a.Atime = info.ModTime()
		a.Ctime = info.ModTime()
		a.BlockSize = 4096
		a.Blocks = safeInt64ToUint64((info.Size() + 511) / 512)
	}

	return nil
}

func waitForMount(mountPoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountPoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount mounts the filesystem and starts serving requests in the
// background. Use Wait to block until the kernel connection closes.
func (r *RoFS) Mount(mountPoint string) error {
	mountLogger.Info("Mounting filtered filesystem")
	mountLogger.Debug("Mount point: %s", mountPoint)
	mountLogger.Debug("Source directory: %s", r.source)

	c, err := fuse.Mount(mountPoint,
		fuse.FSName("rofs-filtered"),
		fuse.Subtype("rofs-filtered"),
		fuse.ReadOnly(),
		fuse.AllowNonEmptyMount(),
	)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	r.conn = c
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		if err := fusefs.Serve(c, r); err != nil {
			mountLogger.Error("FUSE server error: %v", err)
		}
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		mountLogger.Error("Mount point not ready: %v", err)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	mountLogger.Info("Filesystem mounted successfully")
	return nil
}

// Wait blocks until the kernel connection closes after an unmount.
func (r *RoFS) Wait() {
	if r.done != nil {
		<-r.done
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

// Unmount cleanly unmounts the filesystem.
func (r *RoFS) Unmount(mountPoint string) error {
	mountLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if r.conn == nil {
		return nil
	}
	err := fuse.Unmount(mountPoint)
	if err != nil {
		mountLogger.Error("Unmount failed: %v", err)
	} else {
		mountLogger.Info("Unmount completed successfully")
	}
	return err
}
