package source

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrBinaryContent is returned for files that contain NUL bytes.
var ErrBinaryContent = errors.New("binary content")

// Cache holds file lines for a single validation run so that every check
// touching a file shares one read. It is not safe for concurrent use and must
// not outlive the run that created it.
type Cache struct {
	entries map[string]cacheEntry
	reads   int
	logger  *slog.Logger
}

type cacheEntry struct {
	lines []string
	err   error
}

// NewCache creates an empty cache.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		logger:  logger,
	}
}

// Lines returns the lines of path, reading it on first use. Failures are
// cached as well, so a broken file is read (and reported) once.
func (c *Cache) Lines(path string) ([]string, error) {
	if e, ok := c.entries[path]; ok {
		return e.lines, e.err
	}

	lines, err := c.read(path)
	c.entries[path] = cacheEntry{lines: lines, err: err}
	return lines, err
}

// Reads returns how many times the filesystem was hit.
func (c *Cache) Reads() int {
	return c.reads
}

func (c *Cache) read(path string) ([]string, error) {
	c.reads++
	data, err := os.ReadFile(path) //nolint:gosec // paths come from the corpus walk
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("failed to read %s: %w", path, ErrBinaryContent)
	}

	text, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		c.logger.Debug("decoded file as ISO-8859-1", slog.String("path", path))
	}
	return SplitLines(text), nil
}

// decode returns data as a string, treating invalid UTF-8 as ISO-8859-1,
// the usual encoding of older Arduino sources.
func decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// SplitLines splits text into lines. "\r\n" endings are normalized and a
// trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
