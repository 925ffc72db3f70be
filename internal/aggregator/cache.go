package aggregator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/robert-at-pretension-io/export-config/internal/extractor"
)

const cacheFileName = "forms.json"

type cacheVersions struct {
	parser    string
	extractor string
}

func defaultCacheVersions() cacheVersions {
	return cacheVersions{parser: "tree-sitter-javascript", extractor: extractor.Version}
}

// formCacheFile is the whole on-disk cache. A version mismatch discards every
// entry at once.
type formCacheFile struct {
	Parser    string                `json:"parser"`
	Extractor string                `json:"extractor"`
	Forms     map[string]cachedForm `json:"forms"`
}

type cachedForm struct {
	SHA256  string                `json:"sha256"`
	Scripts extractor.FormScripts `json:"scripts"`
}

// formCache persists form analyses across runs in one JSON document, keyed by
// form file path and checked against the file's content hash.
type formCache struct {
	path     string
	versions cacheVersions

	mu    sync.Mutex
	forms map[string]cachedForm
	dirty bool
}

func newFormCache(dir string, versions cacheVersions) *formCache {
	return &formCache{
		path:     filepath.Join(dir, cacheFileName),
		versions: versions,
		forms:    make(map[string]cachedForm),
	}
}

func (c *formCache) Load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read form cache: %w", err)
	}
	var file formCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse form cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if file.Parser != c.versions.parser || file.Extractor != c.versions.extractor || file.Forms == nil {
		c.dirty = true
		return nil
	}
	c.forms = file.Forms
	return nil
}

// Save writes the cache when it changed, dropping entries for form files that
// no longer exist.
func (c *formCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.forms {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			delete(c.forms, path)
			c.dirty = true
		}
	}
	if !c.dirty {
		return nil
	}
	file := formCacheFile{
		Parser:    c.versions.parser,
		Extractor: c.versions.extractor,
		Forms:     c.forms,
	}
	if err := writeJSONAtomic(c.path, file); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func (c *formCache) Get(formPath, contentHash string) (extractor.FormScripts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.forms[formPath]
	if !ok || entry.SHA256 != contentHash {
		return extractor.FormScripts{}, false
	}
	return entry.Scripts, true
}

func (c *formCache) Put(formPath, contentHash string, scripts extractor.FormScripts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms[formPath] = cachedForm{SHA256: contentHash, Scripts: scripts}
	c.dirty = true
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal form cache: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("form cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".forms-*.json")
	if err != nil {
		return fmt.Errorf("temp form cache: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write form cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close form cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename form cache: %w", err)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
