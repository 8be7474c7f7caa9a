package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/catalog"
	"github.com/cinematch/backend/internal/config"
	"github.com/cinematch/backend/internal/engine"
	"github.com/cinematch/backend/internal/logging"
	"github.com/cinematch/backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	input := flag.String("input", "data/movies.csv", "Raw catalog table with title and genres columns")
	out := flag.String("out", cfg.Artifacts.Dir, "Directory the artifacts are written to")
	flag.Parse()

	entry, err := logging.New(cfg.Log, "cinematch-fit", os.Stderr)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}

	f, err := os.Open(*input)
	if err != nil {
		entry.Fatalf("Failed to open input: %v", err)
	}
	entries, err := catalog.ReadCSV(f)
	_ = f.Close()
	if err != nil {
		entry.Fatalf("Failed to read catalog: %v", err)
	}
	if len(entries) == 0 {
		entry.Fatalf("Catalog %s has no rows", *input)
	}

	start := time.Now()
	space := engine.Fit(entries)
	titles := catalog.NewTitleIndex(entries)

	entry.WithFields(logrus.Fields{
		"entries":    len(entries),
		"vocabulary": len(space.Terms),
		"duplicates": titles.Duplicates(),
		"duration":   time.Since(start).String(),
	}).Info("Vector space fitted")

	store := storage.NewFileStorage(
		filepath.Join(*out, cfg.Artifacts.CatalogFile),
		filepath.Join(*out, cfg.Artifacts.VectorSpaceFile),
	)

	ctx := context.Background()
	if err := store.SaveCatalog(ctx, entries); err != nil {
		entry.Fatalf("Failed to save catalog: %v", err)
	}
	meta, err := store.SaveVectorSpace(ctx, space, storage.ModelMetadata{
		FittedAt:           start.UTC(),
		CorpusSize:         len(entries),
		CatalogFingerprint: catalog.Fingerprint(entries),
	})
	if err != nil {
		entry.Fatalf("Failed to save vector space: %v", err)
	}

	entry.WithFields(logrus.Fields{
		"dir":         *out,
		"checksum":    meta.Checksum,
		"size_bytes":  meta.SizeBytes,
		"fingerprint": meta.CatalogFingerprint,
	}).Info("Artifacts written")
}
