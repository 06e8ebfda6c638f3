package store

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/ontology"
)

// OntologyCache manages gob-serialized edge lists on disk, one pair of files
// per source:
//
//	{dir}/{base}-{hash}.gob       (serialized edges)
//	{dir}/{base}-{hash}.gob.meta  (source file fingerprint)
//
// where base is the source file name and hash a prefix of the SHA-256 of its
// absolute path, so equally named sources in different directories do not
// share an entry.
type OntologyCache struct {
	dir    string
	logger *zap.Logger
}

// NewOntologyCache creates an ontology cache in dir.
func NewOntologyCache(dir string) *OntologyCache {
	return &OntologyCache{dir: dir, logger: zap.NewNop()}
}

// SetLogger sets the logger for cache hits, misses and write failures.
func (oc *OntologyCache) SetLogger(logger *zap.Logger) {
	oc.logger = logger
}

func (oc *OntologyCache) gobPath(src FileFingerprint) string {
	return filepath.Join(oc.dir, cacheName(src.Path)+".gob")
}

func cacheName(path string) string {
	h := sha256.Sum256([]byte(absPath(path)))
	return filepath.Base(path) + "-" + hex.EncodeToString(h[:4])
}

func (oc *OntologyCache) metaPath(src FileFingerprint) string {
	return oc.gobPath(src) + ".meta"
}

// Valid checks whether the cached edges match the current source file.
func (oc *OntologyCache) Valid(src FileFingerprint) bool {
	meta, err := oc.readMeta(src)
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{"path", absPath(src.Path)},
		{"size", strconv.FormatInt(src.Size, 10)},
		{"modtime", src.ModTime.UTC().Format(time.RFC3339Nano)},
	}
	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}

	if _, err := os.Stat(oc.gobPath(src)); err != nil {
		return false
	}
	return true
}

// Load reads the cached edges of src.
func (oc *OntologyCache) Load(src FileFingerprint) ([]ontology.Edge, error) {
	f, err := os.Open(oc.gobPath(src))
	if err != nil {
		return nil, fmt.Errorf("open ontology cache: %w", err)
	}
	defer f.Close()

	var edges []ontology.Edge
	if err := gob.NewDecoder(f).Decode(&edges); err != nil {
		return nil, fmt.Errorf("decode ontology cache: %w", err)
	}
	return edges, nil
}

// Write serializes edges parsed from src to disk.
func (oc *OntologyCache) Write(src FileFingerprint, edges []ontology.Edge) error {
	if err := os.MkdirAll(oc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	path := oc.gobPath(src)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ontology cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(edges); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode ontology cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ontology cache: %w", err)
	}

	return oc.writeMeta(src)
}

// Clear removes the cached files of src.
func (oc *OntologyCache) Clear(src FileFingerprint) {
	os.Remove(oc.gobPath(src))
	os.Remove(oc.metaPath(src))
}

func (oc *OntologyCache) writeMeta(src FileFingerprint) error {
	lines := []string{
		"path=" + absPath(src.Path),
		"size=" + strconv.FormatInt(src.Size, 10),
		"modtime=" + src.ModTime.UTC().Format(time.RFC3339Nano),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(oc.metaPath(src), []byte(strings.Join(lines, "\n")), 0644)
}

func (oc *OntologyCache) readMeta(src FileFingerprint) (map[string]string, error) {
	data, err := os.ReadFile(oc.metaPath(src))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// LoadEdges returns the edges of the edge-list file at path, served from the
// cache when its fingerprint still matches and refreshed otherwise. A nil
// cache reads the file directly. The second result reports a cache hit.
func LoadEdges(oc *OntologyCache, path string) ([]ontology.Edge, bool, error) {
	if oc == nil || path == "-" {
		edges, err := ontology.ReadEdgeList(path)
		return edges, false, err
	}

	src, err := StatFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("stat edge list: %w", err)
	}
	if oc.Valid(src) {
		edges, err := oc.Load(src)
		if err == nil {
			oc.logger.Debug("ontology cache hit", zap.String("path", path), zap.Int("edges", len(edges)))
			return edges, true, nil
		}
		oc.logger.Warn("discarding unreadable ontology cache", zap.String("path", path), zap.Error(err))
		oc.Clear(src)
	}

	edges, err := ontology.ReadEdgeList(path)
	if err != nil {
		return nil, false, err
	}
	// Write failures are not fatal.
	if err := oc.Write(src, edges); err != nil {
		oc.logger.Warn("could not write ontology cache", zap.String("dir", oc.dir), zap.Error(err))
	}
	return edges, false, nil
}
