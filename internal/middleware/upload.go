package middleware

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

const uploadedFilesKey = "uploaded_files"

// UploadConfig controls how multipart uploads are staged.
type UploadConfig struct {
	// Field is the multipart form field name, e.g. "logo" or "images".
	Field string
	// Multiple accepts several files under the field; otherwise only the
	// first is taken.
	Multiple bool
	// MaxSize is the per-file size limit in bytes.
	MaxSize int64
	// MaxCount caps the number of files when Multiple is set.
	MaxCount int
}

// UploadedFile is a fully buffered upload.  Files are staged in memory so
// handlers can validate everything before touching object storage.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

// StageUploads reads image files from the multipart form, enforces the
// size and type policy and stores the buffered files on the request
// context.  Requests without the field pass through with no files staged;
// handlers decide whether an upload is mandatory.
func StageUploads(cfg UploadConfig) echo.MiddlewareFunc {
	if cfg.MaxCount == 0 {
		cfg.MaxCount = 5
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ct := c.Request().Header.Get(echo.HeaderContentType)
			if !strings.HasPrefix(ct, "multipart/form-data") {
				return next(c)
			}
			form, err := c.MultipartForm()
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "malformed multipart form"})
			}
			headers := form.File[cfg.Field]
			if len(headers) == 0 {
				return next(c)
			}
			if !cfg.Multiple {
				headers = headers[:1]
			} else if len(headers) > cfg.MaxCount {
				return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "too many files"})
			}

			files := make([]UploadedFile, 0, len(headers))
			for _, fh := range headers {
				f, err := stageOne(fh, cfg.MaxSize)
				if err != nil {
					if msg, ok := policyMessage(err); ok {
						return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": msg})
					}
					return err
				}
				files = append(files, f)
			}
			c.Set(uploadedFilesKey, files)
			return next(c)
		}
	}
}

// UploadedFiles returns the files staged by StageUploads, if any.
func UploadedFiles(c echo.Context) []UploadedFile {
	files, _ := c.Get(uploadedFilesKey).([]UploadedFile)
	return files
}

type policyError string

func (e policyError) Error() string { return string(e) }

const (
	errTooLarge policyError = "File too large. Max 5MB"
	errBadType  policyError = "Only image files allowed (jpeg, jpg, png, webp)"
)

func policyMessage(err error) (string, bool) {
	if pe, ok := err.(policyError); ok {
		return string(pe), true
	}
	return "", false
}

func stageOne(fh *multipart.FileHeader, maxSize int64) (UploadedFile, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return UploadedFile{}, errTooLarge
	}
	ctype := fh.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageTypes[ctype] || !allowedImageExts[ext] {
		return UploadedFile{}, errBadType
	}
	src, err := fh.Open()
	if err != nil {
		return UploadedFile{}, err
	}
	defer src.Close()

	// LimitReader guards against a lying Content-Length on the part.
	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return UploadedFile{}, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return UploadedFile{}, errTooLarge
	}
	return UploadedFile{Name: fh.Filename, ContentType: ctype, Data: data}, nil
}
