package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rofs-filtered.rc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPatterns(t *testing.T) {
	path := writeConfig(t, `# hide lossless audio
\.flac$

# and anything under a private dir
^/private/
`)

	rs, err := Load(path, Options{})
	require.NoError(t, err)
	require.NotNil(t, rs.NamePattern)

	tests := []struct {
		name    string
		input   string
		matches bool
	}{
		{
			name:    "first pattern matches",
			input:   "/music/a.flac",
			matches: true,
		},
		{
			name:    "second pattern matches",
			input:   "/private/notes.txt",
			matches: true,
		},
		{
			name:    "no pattern matches",
			input:   "/music/a.mp3",
			matches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, rs.NamePattern.MatchString(tt.input))
		})
	}
}

func TestLoadSkipsInvalidPattern(t *testing.T) {
	path := writeConfig(t, `[invalid
\.flac$
`)

	rs, err := Load(path, Options{})
	require.NoError(t, err)
	require.NotNil(t, rs.NamePattern)
	assert.True(t, rs.NamePattern.MatchString("/a.flac"))
	assert.False(t, rs.NamePattern.MatchString("[invalid"))
}

func TestLoadTypeRules(t *testing.T) {
	path := writeConfig(t, `|type: CHR
|type:BLK
| type: FIFO
|type: LNK
|type: SOCK
`)

	rs, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Nil(t, rs.NamePattern)

	for _, typ := range []FileType{TypeCharDevice, TypeBlockDevice, TypeFifo, TypeSymlink, TypeSocket} {
		assert.True(t, rs.HiddenTypes[typ], "expected %s to be hidden", typ)
	}
	assert.False(t, rs.HiddenTypes[TypeRegular])
	assert.False(t, rs.HiddenTypes[TypeDirectory])
}

func TestLoadExtensionPriority(t *testing.T) {
	path := writeConfig(t, "|extensionPriority:flac,mp3,ogg\n")

	rs, err := Load(path, Options{})
	require.NoError(t, err)

	// Earlier extensions dominate later ones.
	assert.NotContains(t, rs.ExtPriority, ".flac")
	assert.Equal(t, []string{".flac"}, rs.ExtPriority[".mp3"])
	assert.Equal(t, []string{".flac", ".mp3"}, rs.ExtPriority[".ogg"])
}

func TestLoadOptions(t *testing.T) {
	path := writeConfig(t, "\\.flac$\n")

	rs, err := Load(path, Options{Invert: true, PreservePerms: true})
	require.NoError(t, err)
	assert.True(t, rs.Invert)
	assert.True(t, rs.PreservePerms)
}

func TestLoadNoRules(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "empty file",
			content: "",
		},
		{
			name:    "comments and blanks only",
			content: "# nothing here\n\n   \n",
		},
		{
			name:    "only invalid patterns",
			content: "[bad\n(also bad\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), Options{})
			assert.ErrorIs(t, err, ErrNoRules)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.rc"), Options{})
	assert.Error(t, err)
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		mode     os.FileMode
		expected FileType
	}{
		{"regular", 0644, TypeRegular},
		{"directory", os.ModeDir | 0755, TypeDirectory},
		{"symlink", os.ModeSymlink | 0777, TypeSymlink},
		{"char device", os.ModeDevice | os.ModeCharDevice, TypeCharDevice},
		{"block device", os.ModeDevice, TypeBlockDevice},
		{"fifo", os.ModeNamedPipe, TypeFifo},
		{"socket", os.ModeSocket, TypeSocket},
		{"irregular", os.ModeIrregular, TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeOf(tt.mode))
		})
	}
}
