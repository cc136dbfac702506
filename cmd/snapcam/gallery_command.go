package main

import (
	"fmt"
	"io"

	"github.com/0xmhha/snapcam/pkg/display"
	"github.com/0xmhha/snapcam/pkg/gallery"
	"github.com/0xmhha/snapcam/pkg/storage"
)

// galleryCommand lists indexed photos.
type galleryCommand struct {
	format     string
	limit      int
	scan       bool
	showPaths  bool
	configPath string
}

// Execute runs the gallery command, writing to w.
func (c *galleryCommand) Execute(w io.Writer) error {
	if !display.ValidFormat(c.format) {
		return fmt.Errorf("invalid format: %s", c.format)
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	db, err := storage.Open(storage.Config{Path: cfg.Storage.DBPath}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	store, err := gallery.New(db, log)
	if err != nil {
		return fmt.Errorf("failed to initialize gallery: %w", err)
	}

	if c.scan {
		dir := storage.ExpandHome(cfg.Capture.OutputDir)
		n, err := gallery.NewIndexer(store, log).Scan(dir)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		log.Info("output directory scanned", "dir", dir, "photos", n)
	}

	entries, err := store.List(c.limit)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}

	formatter := display.New(display.Config{
		Format:    display.Format(c.format),
		Color:     display.ColorEnabled(w, cfg.Display.ColorEnabled),
		ShowPaths: c.showPaths || cfg.Display.ShowPaths,
	})

	return formatter.FormatGallery(w, entries)
}
