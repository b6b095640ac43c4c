package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrFileTooLarge   = errors.New("file exceeds the size limit")
	ErrBadExtension   = errors.New("file extension not allowed")
	ErrUnsafeFilename = errors.New("filename escapes the upload directory")
)

// ReceiptStore writes uploaded receipt files under a base directory.
// Stored names carry a random uuid prefix so uploads never collide.
type ReceiptStore struct {
	baseDir      string
	allowedExts  map[string]bool
	maxSizeBytes int64
	logger       *zap.Logger
}

// NewReceiptStore creates a new receipt store
func NewReceiptStore(baseDir string, allowedExts []string, maxSizeBytes int64, logger *zap.Logger) *ReceiptStore {
	exts := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &ReceiptStore{
		baseDir:      baseDir,
		allowedExts:  exts,
		maxSizeBytes: maxSizeBytes,
		logger:       logger,
	}
}

// SaveUpload validates and stores a multipart upload, returning the
// stored filename relative to the base directory.
func (s *ReceiptStore) SaveUpload(header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSizeBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, header.Size)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !s.allowedExts[ext] {
		return "", fmt.Errorf("%w: %q", ErrBadExtension, ext)
	}

	name := uuid.New().String() + "_" + filepath.Base(header.Filename)
	fullPath := filepath.Join(s.baseDir, name)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create upload directory", zap.String("dir", s.baseDir), zap.Error(err))
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		s.logger.Error("Failed to create file", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to write file", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Receipt stored",
		zap.String("name", name),
		zap.Int64("size", header.Size))

	return name, nil
}

// Exists reports whether a stored file is present
func (s *ReceiptStore) Exists(name string) bool {
	fullPath := filepath.Join(s.baseDir, name)
	if err := s.validatePath(fullPath); err != nil {
		return false
	}
	_, err := os.Stat(fullPath)
	return err == nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *ReceiptStore) Delete(name string) error {
	fullPath := filepath.Join(s.baseDir, name)
	if err := s.validatePath(fullPath); err != nil {
		return err
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.logger.Debug("Receipt deleted", zap.String("name", name))
	return nil
}

// validatePath checks that the path stays within the base directory
func (s *ReceiptStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrUnsafeFilename, fullPath)
	}

	return nil
}
