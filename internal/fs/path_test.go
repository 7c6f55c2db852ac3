package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVirtualPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple path",
			input:    "test.txt",
			expected: "/test.txt",
		},
		{
			name:     "nested path",
			input:    "dir/test.txt",
			expected: "/dir/test.txt",
		},
		{
			name:     "already absolute path",
			input:    "/dir/test.txt",
			expected: "/dir/test.txt",
		},
		{
			name:     "dot path gets cleaned",
			input:    "./test.txt",
			expected: "/test.txt",
		},
		{
			name:     "trailing slash gets cleaned",
			input:    "/dir/",
			expected: "/dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewVirtualPath(tt.input).String())
		})
	}
}

func TestVirtualPathChild(t *testing.T) {
	assert.Equal(t, "/dir/file.txt", NewVirtualPath("/dir").Child("file.txt").String())
	assert.Equal(t, "/file.txt", NewVirtualPath("/").Child("file.txt").String())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		virtual  string
		expected string
	}{
		{
			name:     "plain join",
			root:     "/srv/media",
			virtual:  "/music/a.mp3",
			expected: "/srv/media/music/a.mp3",
		},
		{
			name:     "root with trailing slash",
			root:     "/srv/media/",
			virtual:  "/music/a.mp3",
			expected: "/srv/media/music/a.mp3",
		},
		{
			name:     "virtual root keeps the join separator",
			root:     "/srv/media",
			virtual:  "/",
			expected: "/srv/media/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Translate(tt.root, NewVirtualPath(tt.virtual)))
		})
	}
}
