package module

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml"
)

// Registry is a filesystem-rooted collection of module descriptors,
// keyed both by the canonical path of the descriptor file that
// defined them and by the module's declared name. A WalkDir over the
// registry root populates both indexes once, at startup; modules are
// not discovered lazily and the registry never re-scans the
// filesystem after construction.
type Registry struct {
	root   string
	byPath map[string]Descriptor
	byName map[string]Descriptor
}

// LoadErrors collects descriptor files that failed to parse, keyed by
// path, without aborting the rest of the walk — one malformed module
// should not make every other module unavailable.
type LoadErrors map[string]error

func (e LoadErrors) Error() string {
	var b strings.Builder
	paths := make([]string, 0, len(e))
	for p := range e {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for i, p := range paths {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", p, e[p])
	}
	return b.String()
}

// NewRegistry walks root looking for *.toml descriptor files and
// parses each one as a Descriptor. Files that fail to parse or fail
// Validate are skipped and reported back via the returned LoadErrors
// (nil if every descriptor loaded cleanly); the Registry itself is
// always usable, containing whatever parsed successfully.
func NewRegistry(root string) (*Registry, error) {
	reg := &Registry{
		root:   root,
		byPath: make(map[string]Descriptor),
		byName: make(map[string]Descriptor),
	}

	loadErrs := LoadErrors{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".toml") {
			return nil
		}

		desc, parseErr := loadDescriptor(path)
		if parseErr != nil {
			loadErrs[path] = parseErr
			return nil
		}

		absPath, absErr := filepath.Abs(path)
		if absErr != nil {
			absPath = path
		}
		reg.byPath[absPath] = desc
		reg.byName[desc.Name] = desc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk module registry root %s: %w", root, err)
	}

	if len(loadErrs) > 0 {
		return reg, loadErrs
	}
	return reg, nil
}

func loadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read: %w", err)
	}

	var desc Descriptor
	if err := toml.Unmarshal(data, &desc); err != nil {
		return Descriptor{}, fmt.Errorf("parse toml: %w", err)
	}
	if err := desc.Validate(); err != nil {
		return Descriptor{}, err
	}

	// exec_path is relative to the descriptor's own directory, not the
	// registry root or the process's working directory.
	if !filepath.IsAbs(desc.ExecPath) {
		desc.ExecPath = filepath.Join(filepath.Dir(path), desc.ExecPath)
	}
	return desc, nil
}

// ByName looks up a module by its declared module_name.
func (r *Registry) ByName(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// ByPath looks up a module by the absolute path of its descriptor
// file, matching the data model's path-keyed identity.
func (r *Registry) ByPath(path string) (Descriptor, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	d, ok := r.byPath[absPath]
	return d, ok
}

// Names returns every module name in the registry, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len reports how many modules successfully loaded.
func (r *Registry) Len() int {
	return len(r.byName)
}
