package fs

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"bazil.org/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFile(t *testing.T, rofs *RoFS, dir *Dir, name string) *File {
	t.Helper()
	node, err := dir.Lookup(context.Background(), name)
	require.NoError(t, err)
	file, ok := node.(*File)
	require.True(t, ok)
	return file
}

func TestOpenAndRead(t *testing.T) {
	sourceDir := writeFiles(t, "music/a.flac")
	require.NoError(t, os.WriteFile(
		filepath.Join(sourceDir, "music/a.mp3"), []byte("mp3 bytes"), 0644))
	rofs := newTestFS(t, sourceDir, flacRules())

	music, err := rootDir(t, rofs).Lookup(context.Background(), "music")
	require.NoError(t, err)
	file := lookupFile(t, rofs, music.(*Dir), "a.mp3")
	ctx := context.Background()

	handle, err := file.Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
	require.NoError(t, err)
	fh := handle.(*FileHandle)
	defer func() {
		assert.NoError(t, fh.Release(ctx, &fuse.ReleaseRequest{}))
	}()

	resp := &fuse.ReadResponse{}
	require.NoError(t, fh.Read(ctx, &fuse.ReadRequest{Size: 64}, resp))
	assert.Equal(t, "mp3 bytes", string(resp.Data))

	t.Run("offset read", func(t *testing.T) {
		resp := &fuse.ReadResponse{}
		require.NoError(t, fh.Read(ctx, &fuse.ReadRequest{Offset: 4, Size: 64}, resp))
		assert.Equal(t, "bytes", string(resp.Data))
	})

	t.Run("write refused", func(t *testing.T) {
		err := fh.Write(ctx, &fuse.WriteRequest{Data: []byte("nope")}, &fuse.WriteResponse{})
		assert.ErrorIs(t, err, syscall.EPERM)
	})
}

func TestOpenRefusesWriteFlags(t *testing.T) {
	sourceDir := writeFiles(t, "a.mp3")
	rofs := newTestFS(t, sourceDir, flacRules())
	file := lookupFile(t, rofs, rootDir(t, rofs), "a.mp3")
	ctx := context.Background()

	tests := []struct {
		name  string
		flags fuse.OpenFlags
	}{
		{"write only", fuse.OpenWriteOnly},
		{"read write", fuse.OpenReadWrite},
		{"create", fuse.OpenReadOnly | fuse.OpenCreate},
		{"exclusive", fuse.OpenReadOnly | fuse.OpenExclusive},
		{"truncate", fuse.OpenReadOnly | fuse.OpenTruncate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := file.Open(ctx, &fuse.OpenRequest{Flags: tt.flags}, &fuse.OpenResponse{})
			assert.ErrorIs(t, err, syscall.EPERM)
		})
	}
}

func TestOpenHiddenPath(t *testing.T) {
	sourceDir := writeFiles(t, "a.flac")
	rofs := newTestFS(t, sourceDir, flacRules())

	file := &File{fs: rofs, path: NewVirtualPath("/a.flac")}
	_, err := file.Open(context.Background(),
		&fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
	assert.ErrorIs(t, err, syscall.ENOENT)
}

func TestFileMutationsRefused(t *testing.T) {
	sourceDir := writeFiles(t, "a.mp3")
	rofs := newTestFS(t, sourceDir, flacRules())
	file := lookupFile(t, rofs, rootDir(t, rofs), "a.mp3")
	ctx := context.Background()

	assert.ErrorIs(t, file.Setattr(ctx, &fuse.SetattrRequest{}, &fuse.SetattrResponse{}), syscall.EPERM)
	assert.ErrorIs(t, file.Setxattr(ctx, &fuse.SetxattrRequest{Name: "user.test"}), syscall.EPERM)
	assert.ErrorIs(t, file.Removexattr(ctx, &fuse.RemovexattrRequest{Name: "user.test"}), syscall.EPERM)
}

func TestFsync(t *testing.T) {
	sourceDir := writeFiles(t, "a.mp3")
	rofs := newTestFS(t, sourceDir, flacRules())
	file := lookupFile(t, rofs, rootDir(t, rofs), "a.mp3")

	assert.NoError(t, file.Fsync(context.Background(), &fuse.FsyncRequest{}))
}
