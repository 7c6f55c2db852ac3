package rules

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gburca/rofs-filtered/internal/logging"
)

var (
	configLogger = logging.GetLogger().WithPrefix("rules")

	// ErrNoRules indicates the config file produced no usable rules at all.
	ErrNoRules = errors.New("config file contains no valid rules")

	// ignoreLine matches comments and blank lines.
	ignoreLine = regexp.MustCompile(`^#|^\s*$`)

	// typeLine matches a special file-type declaration.
	typeLine = regexp.MustCompile(`^\|\s*type:\s*(CHR|BLK|FIFO|LNK|SOCK)\s*$`)
)

const extPriorityPrefix = "|extensionPriority:"

var typeTags = map[string]FileType{
	"CHR":  TypeCharDevice,
	"BLK":  TypeBlockDevice,
	"FIFO": TypeFifo,
	"LNK":  TypeSymlink,
	"SOCK": TypeSocket,
}

// Load reads the rc file and builds the RuleSet. Individual pattern lines
// that fail to compile are logged and skipped; a file that yields no
// patterns, no type rules, and no extension priorities is an error, as is
// an unreadable file.
func Load(path string, opts Options) (*RuleSet, error) {
	configLogger.Debug("Loading config file: %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	rs := &RuleSet{
		HiddenTypes:   make(map[FileType]bool),
		ExtPriority:   make(map[string][]string),
		Invert:        opts.Invert,
		PreservePerms: opts.PreservePerms,
	}

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || ignoreLine.MatchString(line) {
			continue
		}

		if m := typeLine.FindStringSubmatch(line); m != nil {
			configLogger.Debug("Type rule: %s", m[1])
			rs.HiddenTypes[typeTags[m[1]]] = true
			continue
		}

		if strings.HasPrefix(line, extPriorityPrefix) {
			exts := strings.Split(line[len(extPriorityPrefix):], ",")
			if len(exts) == 0 {
				continue
			}
			configLogger.Debug("Extension priority: %s", strings.Join(exts, " > "))
			rs.addPriorityList(exts)
			continue
		}

		// Test that the line compiles on its own before merging it, so a
		// bad line is skipped instead of poisoning the whole alternation.
		if _, err := regexp.CompilePOSIX(line); err != nil {
			configLogger.Error("Skipping invalid pattern %q: %v", line, err)
			continue
		}
		configLogger.Debug("Pattern: %s", line)
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if len(patterns) == 0 && len(rs.HiddenTypes) == 0 && len(rs.ExtPriority) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRules)
	}

	if len(patterns) > 0 {
		merged := "(" + strings.Join(patterns, ")|(") + ")"
		configLogger.Debug("Full regex: %s", merged)
		rs.NamePattern, err = regexp.CompilePOSIX(merged)
		if err != nil {
			return nil, fmt.Errorf("failed to compile merged pattern: %w", err)
		}
	}

	return rs, nil
}
