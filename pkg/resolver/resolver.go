// Package resolver locates 3D model files referenced by footprints.
//
// Model paths in a board file are written the way KiCad stores them: they
// may be absolute, relative to the project, prefixed with an alias of the
// form ":ALIAS:" or contain environment variables such as ${KISYS3DMOD}.
// Footprint libraries usually reference VRML files, so a missing model is
// also looked up with the extensions of formats the kernel can load.
package resolver

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// AltExtensions are tried in order when a model path does not resolve as
// written
var AltExtensions = []string{".step", ".stp", ".STEP", ".STP", ".igs", ".iges", ".IGS", ".IGES", ".stl", ".STL"}

// Resolver maps model names to files on disk
type Resolver struct {
	ProjectDir  string
	SearchPaths []string
	Aliases     map[string]string

	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
}

// New creates a resolver rooted at the board's project directory
func New(projectDir string, searchPaths ...string) *Resolver {
	return &Resolver{
		ProjectDir:  projectDir,
		SearchPaths: searchPaths,
		Aliases:     make(map[string]string),
		LookupEnv:   os.LookupEnv,
	}
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}|\$\(([^)]+)\)`)

// ExpandEnv substitutes ${VAR} and $(VAR). Undefined variables are left in
// place so that the failed lookup names them.
func (r *Resolver) ExpandEnv(s string) string {
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return ref
	})
}

// splitAlias separates ":ALIAS:rest" into its parts
func splitAlias(name string) (alias, rest string, ok bool) {
	if !strings.HasPrefix(name, ":") {
		return "", name, false
	}
	end := strings.Index(name[1:], ":")
	if end < 1 {
		return "", name, false
	}
	return name[1 : end+1], name[end+2:], true
}

// Candidates lists the paths tried for name, in order, without checking
// that they exist
func (r *Resolver) Candidates(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	var bases []string
	if alias, rest, ok := splitAlias(name); ok {
		if dir, found := r.Aliases[alias]; found {
			bases = append(bases, filepath.Join(r.ExpandEnv(dir), filepath.FromSlash(rest)))
		}
	} else {
		expanded := filepath.FromSlash(r.ExpandEnv(name))
		if filepath.IsAbs(expanded) {
			bases = append(bases, expanded)
		} else {
			if r.ProjectDir != "" {
				bases = append(bases, filepath.Join(r.ProjectDir, expanded))
			}
			for _, dir := range r.searchDirs() {
				bases = append(bases, filepath.Join(dir, expanded))
			}
			bases = append(bases, expanded)
		}
	}

	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, b := range bases {
		add(b)
	}
	for _, b := range bases {
		stem := strings.TrimSuffix(b, filepath.Ext(b))
		for _, ext := range AltExtensions {
			add(stem + ext)
		}
	}
	return out
}

// searchDirs returns configured search paths followed by alias targets
func (r *Resolver) searchDirs() []string {
	dirs := make([]string, 0, len(r.SearchPaths)+len(r.Aliases))
	for _, p := range r.SearchPaths {
		dirs = append(dirs, r.ExpandEnv(p))
	}
	for _, alias := range sortedKeys(r.Aliases) {
		dirs = append(dirs, r.ExpandEnv(r.Aliases[alias]))
	}
	return dirs
}

// ResolvePath returns the first candidate that names an existing regular
// file. When nothing matches the name is returned unchanged and ok is false.
func (r *Resolver) ResolvePath(name string) (path string, ok bool) {
	for _, c := range r.Candidates(name) {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, true
		}
	}
	return name, false
}
