package dexc

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind classifies a frame's originating source unit.
type Kind uint8

const (
	// KindUser is code the report's reader most likely wrote.
	KindUser Kind = iota
	// KindInfrastructure is standard library or installed
	// third-party code: shown de-emphasized, collapsed when it runs
	// long.
	KindInfrastructure
	// KindElidable is this package's own internals, hidden so the
	// renderer does not report on itself.
	KindElidable
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindInfrastructure:
		return "infrastructure"
	case KindElidable:
		return "elidable"
	default:
		return "unknown"
	}
}

// Rules configures classification. Roots are path prefixes compared
// after cleaning; user rules win over everything else.
type Rules struct {
	UserRoots  []string `yaml:"user_roots"`
	InfraRoots []string `yaml:"infra_roots"`
}

// LoadRules reads classifier rules from a YAML file.
func LoadRules(path string) (Rules, error) {
	var rules Rules
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, err
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, err
	}
	return rules, nil
}

// Classifier decides the Kind of a source unit. Classification is a
// pure function of the unit path and the configuration captured at
// construction: the same unit always yields the same Kind.
type Classifier struct {
	userRoots  []string
	infraRoots []string
	selfRoot   string
}

// NewClassifier builds a classifier from the given rules plus the
// ambient installation roots: GOROOT, the module cache, and this
// package's own source root (which classifies as elidable).
func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{selfRoot: selfRoot()}
	for _, root := range rules.UserRoots {
		if root != "" {
			c.userRoots = append(c.userRoots, filepath.Clean(root))
		}
	}
	if goroot := runtime.GOROOT(); goroot != "" {
		c.infraRoots = append(c.infraRoots, filepath.Join(goroot, "src"))
	}
	for _, root := range modCacheRoots() {
		c.infraRoots = append(c.infraRoots, root)
	}
	for _, root := range rules.InfraRoots {
		if root != "" {
			c.infraRoots = append(c.infraRoots, filepath.Clean(root))
		}
	}
	return c
}

// Classify maps a source unit to its Kind. Synthetic units (of the
// form "<...>") count as infrastructure: they have no source to show
// and are rarely what the reader is after.
func (c *Classifier) Classify(unit string) Kind {
	if unit == "" || strings.HasPrefix(unit, "<") {
		return KindInfrastructure
	}
	unit = filepath.Clean(unit)
	for _, root := range c.userRoots {
		if underRoot(unit, root) {
			return KindUser
		}
	}
	for _, root := range c.infraRoots {
		if underRoot(unit, root) {
			return KindInfrastructure
		}
	}
	if c.selfRoot != "" && underRoot(unit, c.selfRoot) {
		return KindElidable
	}
	return KindUser
}

func underRoot(path, root string) bool {
	if !strings.HasPrefix(path, root) {
		return false
	}
	return len(path) == len(root) || path[len(root)] == filepath.Separator
}

// modCacheRoots resolves the module download cache the way the go tool
// does: GOMODCACHE, then GOPATH/pkg/mod, then ~/go/pkg/mod.
func modCacheRoots() []string {
	if cache := os.Getenv("GOMODCACHE"); cache != "" {
		return []string{filepath.Clean(cache)}
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		var roots []string
		for _, p := range filepath.SplitList(gopath) {
			roots = append(roots, filepath.Join(p, "pkg", "mod"))
		}
		return roots
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, "go", "pkg", "mod")}
}

// selfRoot locates the directory holding this package's sources so
// that its own frames classify as elidable.
func selfRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(file)
}
