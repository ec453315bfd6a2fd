// Package validation checks input files and output directories before a
// report run starts.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "gasrisk/internal/errors"
)

// PriceExtensions are the price table formats the series loader reads
var PriceExtensions = []string{".xlsx", ".xlsm", ".csv", ".txt"}

// FileValidator checks the files a run reads and the directories it writes
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateFile checks that path is an existing, readable regular file.
// what names the file in errors.
func (v *FileValidator) ValidateFile(what, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist", slog.String("input", what), slog.String("file", path))
		return apperrors.NewNotFoundError(what).WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewStorageError("stat "+what, err).WithContext("path", path)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s %s is a directory", what, path))
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError(what+" is not readable", err).WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("input", what),
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidatePriceFile checks the price table exists and has a readable format
func (v *FileValidator) ValidatePriceFile(path string) error {
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewAppValidationError(fmt.Sprintf("price file %s is a temporary Excel file", path))
	}
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range PriceExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return apperrors.NewAppValidationError(fmt.Sprintf("unsupported price file extension %q", ext)).
			WithContext("path", path)
	}
	return v.ValidateFile("price file", path)
}

// ValidateInputDirectory checks that dir exists and counts the files under
// it matching pattern. No matching file is not an error.
func (v *FileValidator) ValidateInputDirectory(what, dir, pattern string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist", slog.String("input", what), slog.String("directory", dir))
		return 0, apperrors.NewNotFoundError(what).WithContext("path", dir)
	}
	if err != nil {
		return 0, apperrors.NewStorageError("stat "+what, err).WithContext("path", dir)
	}
	if !info.IsDir() {
		return 0, apperrors.NewAppValidationError(fmt.Sprintf("%s %s is not a directory", what, dir))
	}

	n, err := v.CountFiles(dir, pattern)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		v.logger.Warn("No files matching pattern found",
			slog.String("directory", dir),
			slog.String("pattern", pattern))
	}
	return n, nil
}

// CountFiles counts regular files matching pattern under dir
func (v *FileValidator) CountFiles(dir, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	count := 0
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			count++
		}
	}
	return count, nil
}

// ValidateOutputDirectory creates dir if needed and checks it is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("create output directory", err).WithContext("path", dir)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory is not writable", err).WithContext("path", dir)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
