package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStorage persists links as JSON lines. The whole file is indexed in
// memory on open; inserts append a single line.
type FileStorage struct {
	mu     sync.Mutex
	file   *os.File
	index  *MemoryStorage
	logger *zap.Logger
}

// NewFileStorage opens (or creates) the file at p and loads its links.
func NewFileStorage(p string, logger *zap.Logger) (*FileStorage, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(p), 0770); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0660)
	if err != nil {
		return nil, err
	}

	index, _ := CreateMemoryStorage()
	fs := &FileStorage{
		file:   file,
		index:  index,
		logger: logger,
	}

	if err := fs.load(); err != nil {
		file.Close()
		return nil, err
	}

	logger.Info("file storage loaded", zap.String("path", p), zap.Int("links", index.Len()))
	return fs, nil
}

func (fs *FileStorage) load() error {
	scanner := bufio.NewScanner(fs.file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var l Link
		if err := json.Unmarshal(scanner.Bytes(), &l); err != nil {
			return fmt.Errorf("failed to parse JSON line %d: %w", line, err)
		}

		if err := fs.index.Insert(context.Background(), l.Slug, l.Destination); err != nil {
			fs.logger.Warn("duplicate slug in storage file, keeping first", zap.String("slug", l.Slug), zap.Int("line", line))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

func (fs *FileStorage) Insert(ctx context.Context, slug, destination string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.index.Insert(ctx, slug, destination); err != nil {
		return err
	}

	b, err := json.Marshal(Link{Slug: slug, Destination: destination})
	if err != nil {
		return err
	}

	if _, err = fs.file.Write(append(b, '\n')); err != nil {
		fs.index.remove(slug)
		fs.logger.Error("cannot append link", zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("append link: %w", err)
	}

	return nil
}

func (fs *FileStorage) FindBySlug(ctx context.Context, slug string) (*Link, error) {
	return fs.index.FindBySlug(ctx, slug)
}

func (fs *FileStorage) PingContext(_ context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, err := fs.file.Stat()
	return err
}

func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.file.Close()
}
