package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/cinematch/backend/internal/catalog"
	"github.com/cinematch/backend/internal/engine"
	"github.com/cinematch/backend/internal/search"
)

// FormatVersion is the vector space artifact layout version
const FormatVersion = 1

var (
	// ErrMissingArtifact is returned when an artifact file does not exist
	ErrMissingArtifact = errors.New("storage: artifact not found")
	// ErrCorruptArtifact is returned when an artifact cannot be decoded or fails its checksum
	ErrCorruptArtifact = errors.New("storage: artifact is corrupt")
)

// ArtifactStorage defines the interface for the fitted model artifacts
type ArtifactStorage interface {
	SaveCatalog(ctx context.Context, entries []catalog.Entry) error
	LoadCatalog(ctx context.Context) ([]catalog.Entry, error)
	SaveVectorSpace(ctx context.Context, space search.VectorSpace, meta ModelMetadata) (*ModelMetadata, error)
	LoadVectorSpace(ctx context.Context) (search.VectorSpace, *ModelMetadata, error)
}

// ModelMetadata describes a persisted vector space and the catalog it was fit on
type ModelMetadata struct {
	Version            int       `json:"version"`
	FittedAt           time.Time `json:"fitted_at"`
	SavedAt            time.Time `json:"saved_at"`
	CorpusSize         int       `json:"corpus_size"`
	VocabularySize     int       `json:"vocabulary_size"`
	CatalogFingerprint string    `json:"catalog_fingerprint"`
	Checksum           string    `json:"checksum"`
	SizeBytes          int64     `json:"size_bytes"`
}

// Manifest returns the pairing information the engine verifies at load
func (m ModelMetadata) Manifest() engine.Manifest {
	return engine.Manifest{
		CorpusSize:         m.CorpusSize,
		CatalogFingerprint: m.CatalogFingerprint,
		FittedAt:           m.FittedAt,
	}
}

// storedFile is the on-disk envelope of the vector space artifact
type storedFile struct {
	Metadata ModelMetadata `json:"metadata"`
	Payload  []byte        `json:"payload"`
}

// FileStorage implements ArtifactStorage on the local file system
type FileStorage struct {
	catalogPath string
	spacePath   string
	mu          sync.RWMutex
}

// NewFileStorage creates a file-based artifact storage for the two paths
func NewFileStorage(catalogPath, spacePath string) *FileStorage {
	return &FileStorage{
		catalogPath: catalogPath,
		spacePath:   spacePath,
	}
}

// SaveCatalog writes the catalog table
func (fs *FileStorage) SaveCatalog(ctx context.Context, entries []catalog.Entry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var buf bytes.Buffer
	if err := catalog.WriteCSV(&buf, entries); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return writeFile(fs.catalogPath, buf.Bytes())
}

// LoadCatalog reads the catalog table
func (fs *FileStorage) LoadCatalog(ctx context.Context) ([]catalog.Entry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	f, err := os.Open(fs.catalogPath)
	if err != nil {
		return nil, openError(fs.catalogPath, err)
	}
	defer f.Close()

	entries, err := catalog.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptArtifact, fs.catalogPath, err)
	}
	return entries, nil
}

// SaveVectorSpace compresses the fitted state and writes it with its metadata.
// The checksum, sizes and save time are filled in from the payload.
func (fs *FileStorage) SaveVectorSpace(ctx context.Context, space search.VectorSpace, meta ModelMetadata) (*ModelMetadata, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	raw, err := json.Marshal(space)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vector space: %w", err)
	}

	hash := sha256.Sum256(raw)
	meta.Checksum = hex.EncodeToString(hash[:])
	meta.Version = FormatVersion
	meta.VocabularySize = len(space.Terms)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress vector space: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(storedFile{Metadata: meta, Payload: compressed.Bytes()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := writeFile(fs.spacePath, data); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadVectorSpace reads the vector space and verifies its checksum
func (fs *FileStorage) LoadVectorSpace(ctx context.Context) (search.VectorSpace, *ModelMetadata, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var space search.VectorSpace

	data, err := os.ReadFile(fs.spacePath)
	if err != nil {
		return space, nil, openError(fs.spacePath, err)
	}

	var sf storedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return space, nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, fs.spacePath, err)
	}
	if sf.Metadata.Version != FormatVersion {
		return space, nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptArtifact, sf.Metadata.Version)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.Payload))
	if err != nil {
		return space, nil, fmt.Errorf("%w: decompress: %v", ErrCorruptArtifact, err)
	}
	defer gzr.Close()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return space, nil, fmt.Errorf("%w: decompress: %v", ErrCorruptArtifact, err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return space, nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrCorruptArtifact, sf.Metadata.Checksum, checksum)
	}

	if err := json.Unmarshal(raw, &space); err != nil {
		return space, nil, fmt.Errorf("%w: decode vector space: %v", ErrCorruptArtifact, err)
	}
	if err := space.Validate(); err != nil {
		return space, nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}

	return space, &sf.Metadata, nil
}

// LoadModel loads the vector space for engine.Load
func (fs *FileStorage) LoadModel(ctx context.Context) (search.VectorSpace, engine.Manifest, error) {
	space, meta, err := fs.LoadVectorSpace(ctx)
	if err != nil {
		return space, engine.Manifest{}, err
	}
	return space, meta.Manifest(), nil
}

// writeFile writes through a temporary file so readers never see a partial artifact
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
	}
	return fmt.Errorf("failed to read %s: %w", path, err)
}
