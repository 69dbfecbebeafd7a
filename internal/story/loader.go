package story

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// extensions lists the file suffixes [LoadDir] picks up. JSON is a subset of
// YAML, so both go through the same decoder.
var extensions = []string{".yaml", ".yml", ".json"}

// LoadFile reads and validates the story file at path. When the file does not
// set an id, the file name without extension is used.
func LoadFile(path string) (*Story, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("story: open %q: %w", path, err)
	}
	defer f.Close()

	s, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("story: parse %q: %w", path, err)
	}
	if s.ID == "" {
		base := filepath.Base(path)
		s.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFromReader decodes a story from r and validates it. The story must set
// its own id. The caller is responsible for closing r.
func LoadFromReader(r io.Reader) (*Story, error) {
	s, err := decode(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(r io.Reader) (*Story, error) {
	var s Story
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("story: decode: %w", err)
	}
	applyDefaults(&s)
	return &s, nil
}

// LoadDir loads every story file in dir (non-recursive) into a [Library].
//
// Files that fail to load are skipped; their errors are joined into the
// returned error alongside a library holding the stories that did load, so a
// caller may choose to serve a partial library.
func LoadDir(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("story: read dir %q: %w", dir, err)
	}

	var (
		stories []*Story
		errs    []error
	)
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		s, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stories = append(stories, s)
	}

	lib, err := NewLibrary(stories...)
	if err != nil {
		errs = append(errs, err)
	}
	return lib, errors.Join(errs...)
}
