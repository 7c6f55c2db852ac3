// Package rules holds the filtering configuration: the compiled name
// pattern, the hidden file-type set, and the extension priority graph
// loaded from the rc file at startup.
package rules

import (
	"os"
	"regexp"
)

// FileType tags the filesystem node type a filter decision is made for.
// It is the portable stand-in for the stat mode's type bits.
type FileType uint8

const (
	TypeUnknown FileType = iota
	TypeRegular
	TypeDirectory
	TypeSymlink
	TypeCharDevice
	TypeBlockDevice
	TypeFifo
	TypeSocket
)

var typeNames = map[FileType]string{
	TypeUnknown:     "unknown",
	TypeRegular:     "regular",
	TypeDirectory:   "directory",
	TypeSymlink:     "symlink",
	TypeCharDevice:  "chardev",
	TypeBlockDevice: "blockdev",
	TypeFifo:        "fifo",
	TypeSocket:      "socket",
}

func (t FileType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "invalid"
}

// TypeOf derives the FileType tag from a file mode.
func TypeOf(mode os.FileMode) FileType {
	switch {
	case mode.IsDir():
		return TypeDirectory
	case mode&os.ModeSymlink != 0:
		return TypeSymlink
	case mode&os.ModeCharDevice != 0:
		return TypeCharDevice
	case mode&os.ModeDevice != 0:
		return TypeBlockDevice
	case mode&os.ModeNamedPipe != 0:
		return TypeFifo
	case mode&os.ModeSocket != 0:
		return TypeSocket
	case mode&os.ModeType == 0:
		return TypeRegular
	default:
		return TypeUnknown
	}
}

// RuleSet is the complete filter configuration. It is built once by Load
// and never mutated afterwards, so it can be shared by any number of
// concurrent decisions without synchronization.
type RuleSet struct {
	// NamePattern is the alternation of every regex line in the config
	// file, or nil when no pattern lines were configured.
	NamePattern *regexp.Regexp

	// HiddenTypes holds the special file types named by |type: lines.
	// Regular files and directories are never present here.
	HiddenTypes map[FileType]bool

	// ExtPriority maps a file extension (with leading dot) to the ordered
	// list of extensions that shadow it. A file is hidden when a sibling
	// with any of the listed extensions exists.
	ExtPriority map[string][]string

	// Invert flips the rule set from a deny-list to an allow-list.
	Invert bool

	// PreservePerms keeps write permission bits in reported modes instead
	// of stripping them.
	PreservePerms bool
}

// Options carries the process-level flags that are folded into the RuleSet
// alongside the parsed config file.
type Options struct {
	Invert        bool
	PreservePerms bool
}

// addPriorityList records one |extensionPriority: declaration. Extensions
// earlier in the list dominate later ones, so every extension gains the
// full set of extensions declared before it.
func (rs *RuleSet) addPriorityList(exts []string) {
	for k, lower := range exts {
		for j := 0; j < k; j++ {
			rs.ExtPriority["."+lower] = append(rs.ExtPriority["."+lower], "."+exts[j])
		}
	}
}
