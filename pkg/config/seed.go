package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

// ErrNoSeedFiles is returned when a seed glob matches no files.
var ErrNoSeedFiles = errors.New("no configuration files match")

// LoadSeed loads the seed document named by pattern. A plain path is read
// with LoadSeedFile. A glob (supporting ** for recursive matching) loads
// every matching file in lexical order and deep-merges them, so later files
// extend and override earlier ones.
func LoadSeed(pattern string) (*jsonvalue.Value, error) {
	if !IsGlob(pattern) {
		return LoadSeedFile(pattern)
	}

	matches, err := expandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSeedFiles, pattern)
	}
	sort.Strings(matches)

	seed := jsonvalue.FromObject(jsonvalue.NewObject())
	for _, match := range matches {
		doc, err := LoadSeedFile(match)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", match, err)
		}
		jsonvalue.Merge(seed, doc)
	}
	return seed, nil
}

// IsGlob reports whether pattern contains glob metacharacters.
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlob expands a glob pattern to the matching file paths.
// Patterns containing ** go through doublestar.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") || strings.Contains(pattern, "{") {
		return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	}
	return filepath.Glob(pattern)
}
