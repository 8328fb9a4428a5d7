package resolver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// AliasFile is KiCad's 3D alias table inside the model config directory
const AliasFile = "3Dresolver.cfg"

var (
	configDirOnce sync.Once
	configDir     string
)

// ConfigDir returns the KiCad user configuration directory. The lookup runs
// once per process.
func ConfigDir() string {
	configDirOnce.Do(func() {
		configDir = kicadConfigDir(os.Getenv, runtime.GOOS)
	})
	return configDir
}

// ModelConfigDir is the directory holding the 3D resolver configuration
func ModelConfigDir() string {
	return filepath.Join(ConfigDir(), "3d")
}

func kicadConfigDir(getenv func(string) string, goos string) string {
	var base string
	switch goos {
	case "windows":
		base = getenv("APPDATA")
	case "darwin":
		if home := getenv("HOME"); home != "" {
			base = filepath.Join(home, "Library", "Preferences")
		}
	default:
		base = getenv("XDG_CONFIG_HOME")
		if base == "" {
			if home := getenv("HOME"); home != "" {
				base = filepath.Join(home, ".config")
			}
		}
	}
	if base == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			base = dir
		}
	}
	return filepath.Join(base, "kicad")
}

// LoadAliases reads 3Dresolver.cfg from dir. A missing file is not an
// error; the table simply stays empty.
func (r *Resolver) LoadAliases(dir string) error {
	f, err := os.Open(filepath.Join(dir, AliasFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open alias table: %w", err)
	}
	defer f.Close()

	aliases, err := ParseAliases(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", AliasFile, err)
	}
	for k, v := range aliases {
		r.Aliases[k] = v
	}
	return nil
}

// ParseAliases reads the alias table. Each line is
//
//	"ALIAS","PATH","DESCRIPTION"
//
// and lines starting with # (including the #V1 version marker) are skipped.
func ParseAliases(rd io.Reader) (map[string]string, error) {
	cr := csv.NewReader(rd)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	aliases := make(map[string]string)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: alias needs a name and a path", line)
		}
		name := strings.TrimSpace(rec[0])
		path := strings.TrimSpace(rec[1])
		if name == "" || path == "" {
			continue
		}
		aliases[name] = path
	}
	return aliases, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
