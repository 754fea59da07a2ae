// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// WriteResult reports what WriteDir changed.
type WriteResult struct {
	Written   []string
	Unchanged []string
	Removed   []string
}

// WriteDir writes the artifacts into dir, creating it when missing. Files
// whose content is already identical are left untouched so repeated builds
// do not disturb modification times. Generated files in dir that are no
// longer part of the artifacts are removed; hand-written files are never
// touched.
func (a *Artifacts) WriteDir(dir string) (WriteResult, error) {
	var res WriteResult
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create output directory: %w", err)
	}

	want := make(map[string]bool, len(a.Files))
	for _, f := range a.Files {
		want[f.Name] = true
		path := filepath.Join(dir, f.Name)
		if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, f.Content) {
			res.Unchanged = append(res.Unchanged, f.Name)
			continue
		}
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return res, fmt.Errorf("write %s: %w", f.Name, err)
		}
		res.Written = append(res.Written, f.Name)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("read output directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || want[name] || !strings.HasSuffix(name, ".go") {
			continue
		}
		path := filepath.Join(dir, name)
		generated, err := isGenerated(path)
		if err != nil {
			return res, err
		}
		if !generated {
			continue
		}
		if err := os.Remove(path); err != nil {
			return res, fmt.Errorf("remove stale %s: %w", name, err)
		}
		res.Removed = append(res.Removed, name)
	}
	slices.Sort(res.Removed)
	return res, nil
}

func isGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return false, sc.Err()
	}
	return strings.TrimSpace(sc.Text()) == Header, nil
}
