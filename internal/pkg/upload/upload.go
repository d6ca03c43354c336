package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type")
)

// allowedExtensions lists the image extensions accepted for uploads
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Save stores an uploaded file under baseDir/subdir with a random filename and
// returns the public path it will be served from (/uploads/...).
func Save(c *fiber.Ctx, file *multipart.FileHeader, baseDir, subdir string, maxSizeMB int) (string, error) {
	if file.Size > int64(maxSizeMB)*1024*1024 {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", ErrInvalidFileType
	}

	dir := filepath.Join(baseDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return "", err
	}

	return fmt.Sprintf("/uploads/%s/%s", subdir, filename), nil
}
