// Package source discovers firmware source files and caches their content
// for the duration of one validation run.
package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are the C/C++ source and header suffixes scanned when no
// extensions are configured.
var DefaultExtensions = []string{".cpp", ".h", ".hpp"}

// walkDir is replaced in tests to inject walk errors.
var walkDir = filepath.WalkDir

// Unreadable is a file or directory the walk could not read.
type Unreadable struct {
	Path string
	Err  error
}

// Corpus is the set of files one run scans.
type Corpus struct {
	Files      []string
	Unreadable []Unreadable
}

// Walk walks every root recursively and collects the files whose extension
// is in exts, sorted by slash-separated path so the order never depends on
// directory listing order. Roots that do not exist are skipped. Hidden
// directories (".git", ".pio") are not descended into.
//
// Read failures never stop the walk: the path is recorded in Unreadable and
// the walk continues with its siblings.
func Walk(roots []string, exts []string) *Corpus {
	wanted := extensionSet(exts)
	seen := make(map[string]bool)
	c := &Corpus{}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				c.Unreadable = append(c.Unreadable, Unreadable{Path: filepath.Clean(root), Err: err})
			}
			continue
		}
		if !info.IsDir() {
			if wanted[strings.ToLower(filepath.Ext(root))] && !seen[filepath.Clean(root)] {
				seen[filepath.Clean(root)] = true
				c.Files = append(c.Files, filepath.Clean(root))
			}
			continue
		}

		_ = walkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				c.Unreadable = append(c.Unreadable, Unreadable{Path: filepath.Clean(path), Err: err})
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !wanted[strings.ToLower(filepath.Ext(d.Name()))] {
				return nil
			}
			clean := filepath.Clean(path)
			if seen[clean] {
				return nil
			}
			seen[clean] = true
			c.Files = append(c.Files, clean)
			return nil
		})
	}

	sortPaths(c.Files)
	sort.SliceStable(c.Unreadable, func(i, j int) bool {
		return filepath.ToSlash(c.Unreadable[i].Path) < filepath.ToSlash(c.Unreadable[j].Path)
	})
	return c
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	wanted := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		wanted[e] = true
	}
	return wanted
}

func sortPaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return filepath.ToSlash(paths[i]) < filepath.ToSlash(paths[j])
	})
}
