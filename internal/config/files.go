package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolveUIDir returns the absolute form directory for a startup script.
func (c *Config) ResolveUIDir(startupPath string) string {
	return resolveAgainst(startupPath, c.UIPath)
}

// ResolveCacheDir returns the absolute cache directory for a startup script.
func (c *Config) ResolveCacheDir(startupPath string) string {
	return resolveAgainst(startupPath, c.Analysis.Cache.Dir)
}

func resolveAgainst(startupPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	baseDir := startupPath
	if info, err := os.Stat(startupPath); err != nil || !info.IsDir() {
		baseDir = filepath.Dir(startupPath)
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, p))
	if err != nil {
		return filepath.Join(baseDir, p)
	}
	return abs
}

// FormPath returns the file that describes form inside uiDir.
func (c *Config) FormPath(uiDir, form string) string {
	return filepath.Join(uiDir, form+c.FormExtension)
}

// FormName strips the directory and form extension from a form file path.
func (c *Config) FormName(path string) string {
	base := filepath.Base(path)
	if ext := c.FormExtension; ext != "" && strings.HasSuffix(base, ext) {
		return strings.TrimSuffix(base, ext)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ListForms returns the sorted names of all form files in uiDir.
func (c *Config) ListForms(uiDir string) ([]string, error) {
	pattern := filepath.Join(uiDir, "*"+c.FormExtension)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			names = append(names, c.FormName(m))
		}
	}
	sort.Strings(names)
	return names, nil
}
