package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

// AllowedImageExtensions are the photo types accepted for buses
var AllowedImageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath  string // root directory where files are stored
	urlPrefix string // prefix of the returned public paths, e.g. "/media"
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath.
// Returned paths start with urlPrefix, which the router serves from basePath.
func NewLocalStorage(basePath, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath:  basePath,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

// BasePath returns the storage root
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// URLPrefix returns the public prefix of stored files
func (ls *LocalStorage) URLPrefix() string {
	return ls.urlPrefix
}

// SaveFileWithPath saves a file to a specified subdirectory
func (ls *LocalStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !AllowedImageExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	subPath = strings.Trim(filepath.ToSlash(filepath.Clean("/"+subPath)), "/")
	fullDirPath := filepath.Join(ls.basePath, filepath.FromSlash(subPath))
	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", fullDirPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	uniqueFilename := uuid.New().String() + ext
	dstPath := filepath.Join(fullDirPath, uniqueFilename)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	accessiblePath := path.Join(ls.urlPrefix, subPath, uniqueFilename)
	logger.Info().Str("filename", fileHeader.Filename).Str("accessible_path", accessiblePath).Msg("File saved successfully")
	return accessiblePath, nil
}

// DeleteFile removes a stored file. Missing files are not an error.
func (ls *LocalStorage) DeleteFile(filePath string) error {
	physicalPath, err := ls.physicalPath(filePath)
	if err != nil || physicalPath == "" {
		return err
	}

	if _, err := os.Stat(physicalPath); os.IsNotExist(err) {
		logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
		return nil
	}

	if err := os.Remove(physicalPath); err != nil {
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// physicalPath maps a public path back under basePath, refusing anything that escapes it
func (ls *LocalStorage) physicalPath(filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}
	rel := strings.TrimPrefix(path.Clean("/"+filePath), ls.urlPrefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		return "", fmt.Errorf("invalid file path: %s", filePath)
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(rel)), nil
}
