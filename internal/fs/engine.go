package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gburca/rofs-filtered/internal/logging"
	"github.com/gburca/rofs-filtered/internal/rules"
)

var (
	engineLogger = logging.GetLogger().WithPrefix("engine")
)

// Decision is the outcome of evaluating a path against the rule set.
type Decision int

const (
	// Visible means the entry is exposed through the mount.
	Visible Decision = iota
	// Hidden means the entry is reported as not existing.
	Hidden
)

func (d Decision) String() string {
	if d == Hidden {
		return "hidden"
	}
	return "visible"
}

// Engine decides whether a virtual path is visible under the loaded rule
// set. It holds no mutable state; the only side effect of a decision is
// the sibling existence probe done for extension priorities.
type Engine struct {
	rules      *rules.RuleSet
	sourceRoot string
}

// NewEngine creates a decision engine for the given source root and rules.
func NewEngine(sourceRoot string, rs *rules.RuleSet) *Engine {
	return &Engine{rules: rs, sourceRoot: sourceRoot}
}

// Rules returns the rule set the engine was built with.
func (e *Engine) Rules() *rules.RuleSet {
	return e.rules
}

// Decide evaluates the filter rules for a virtual path and its file type.
// The precedence is fixed: extension-priority shadowing, then the explicit
// type filter, then the allow-list special case for non-regular types,
// then the name pattern, then the mode default.
func (e *Engine) Decide(vp *VirtualPath, typ rules.FileType) Decision {
	engineLogger.Debug("decide: %s %s", typ, vp.String())
	rs := e.rules

	// A higher-priority sibling shadows this entry outright. Only the
	// deny-list mode consults priorities, and the probe is a raw existence
	// check against the source tree, not a recursive filter decision.
	if !rs.Invert && len(rs.ExtPriority) > 0 {
		real := Translate(e.sourceRoot, vp)
		ext := filepath.Ext(real)
		// A dotfile's whole name is not an extension.
		if ext == filepath.Base(real) {
			ext = ""
		}
		stem := strings.TrimSuffix(real, ext)
		for _, higher := range rs.ExtPriority[ext] {
			sibling := stem + higher
			if _, err := os.Stat(sibling); err == nil {
				engineLogger.Debug("shadowed by %s: %s", higher, vp.String())
				return Hidden
			}
		}
	}

	if rs.HiddenTypes[typ] {
		engineLogger.Debug("type rule %s: %s", typ, vp.String())
		if rs.Invert {
			return Visible
		}
		return Hidden
	}

	// In allow-list mode only regular files and directories are eligible
	// for pattern matching; other node types need an explicit type rule.
	if rs.Invert && typ != rules.TypeRegular && typ != rules.TypeDirectory {
		return Hidden
	}

	if rs.NamePattern != nil && rs.NamePattern.MatchString(vp.String()) {
		engineLogger.Debug("pattern match: %s", vp.String())
		if rs.Invert {
			return Visible
		}
		return Hidden
	}

	if rs.Invert {
		return Hidden
	}
	return Visible
}
