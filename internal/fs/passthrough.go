package fs

import (
	"bytes"
	"os"
	"syscall"

	"github.com/gburca/rofs-filtered/internal/rules"

	"bazil.org/fuse"
	"golang.org/x/sys/unix"
)

// Shared forwarding helpers used by every node type. Each one follows the
// dispatch contract: translate, fetch type metadata when the operation
// does not supply it, decide, then forward or refuse.

// denyMutation reports not-found for hidden paths and refuses everything
// else; every mutation verb funnels through here.
func (r *RoFS) denyMutation(vp *VirtualPath) error {
	if r.engine.Decide(vp, rules.TypeRegular) == Hidden {
		return syscall.ENOENT
	}
	return syscall.EPERM
}

// checkAccess forwards an access check, refusing any request for write
// access regardless of the underlying permissions.
func (r *RoFS) checkAccess(vp *VirtualPath, req *fuse.AccessRequest) error {
	real := Translate(r.source, vp)

	info, err := os.Lstat(real)
	if err != nil {
		return forwarded(OpAccess, vp, err)
	}
	if r.engine.Decide(vp, rules.TypeOf(info.Mode())) == Hidden {
		return syscall.ENOENT
	}

	if req.Mask&unix.W_OK != 0 {
		// We are read-only
		return syscall.EPERM
	}

	if err := unix.Access(real, req.Mask); err != nil {
		return forwarded(OpAccess, vp, err)
	}
	return nil
}

// getxattr forwards an extended attribute read.
func (r *RoFS) getxattr(vp *VirtualPath, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	real := Translate(r.source, vp)

	info, err := os.Lstat(real)
	if err != nil {
		return forwarded(OpGetxattr, vp, err)
	}
	if r.engine.Decide(vp, rules.TypeOf(info.Mode())) == Hidden {
		return syscall.ENOENT
	}

	value, err := lgetxattr(real, req.Name)
	if err != nil {
		return forwarded(OpGetxattr, vp, err)
	}
	resp.Xattr = value
	return nil
}

// listxattr forwards an extended attribute listing.
func (r *RoFS) listxattr(vp *VirtualPath, _ *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	real := Translate(r.source, vp)

	info, err := os.Lstat(real)
	if err != nil {
		return forwarded(OpListxattr, vp, err)
	}
	if r.engine.Decide(vp, rules.TypeOf(info.Mode())) == Hidden {
		return syscall.ENOENT
	}

	names, err := llistxattr(real)
	if err != nil {
		return forwarded(OpListxattr, vp, err)
	}
	for _, name := range names {
		resp.Append(name)
	}
	return nil
}

// lgetxattr reads one attribute without following symlinks, retrying when
// the value grows between the size probe and the read.
func lgetxattr(path, name string) ([]byte, error) {
	for {
		sz, err := unix.Lgetxattr(path, name, nil)
		if err != nil {
			return nil, err
		}
		if sz == 0 {
			return nil, nil
		}
		buf := make([]byte, sz)
		sz, err = unix.Lgetxattr(path, name, buf)
		if err == unix.ERANGE {
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:sz], nil
	}
}

// llistxattr lists attribute names without following symlinks.
func llistxattr(path string) ([]string, error) {
	for {
		sz, err := unix.Llistxattr(path, nil)
		if err != nil {
			return nil, err
		}
		if sz == 0 {
			return nil, nil
		}
		buf := make([]byte, sz)
		sz, err = unix.Llistxattr(path, buf)
		if err == unix.ERANGE {
			continue
		}
		if err != nil {
			return nil, err
		}

		var names []string
		for _, name := range bytes.Split(buf[:sz], []byte{0}) {
			if len(name) > 0 {
				names = append(names, string(name))
			}
		}
		return names, nil
	}
}
