// Package media moves product images to object storage. Only storage paths
// leave this package for persistence; signed URLs are for display.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrForeignPath     = errors.New("path does not belong to vendor")
	ErrNoFiles         = errors.New("no files to upload")
	ErrVendorRequired  = errors.New("vendor id is required")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Transport is the storage backend.
type Transport interface {
	Upload(ctx context.Context, folder, name string, body io.Reader) (string, error)
	SignedURL(path string) (string, error)
}

type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type Uploaded struct {
	Path string `json:"path"`
}

type Failed struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type UploadResult struct {
	Success []Uploaded `json:"success"`
	Failed  []Failed   `json:"failed"`
}

type Service struct {
	transport Transport
	folder    string
	maxBytes  int64
	logger    logger.ZapLogger
	newID     func(name string) string
}

func NewService(t Transport, folder string, maxBytes int64, log logger.ZapLogger) *Service {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Service{
		transport: t,
		folder:    strings.Trim(folder, "/"),
		maxBytes:  maxBytes,
		logger:    log,
		newID:     uniqueName,
	}
}

func uniqueName(name string) string {
	return name + "-" + uuid.New().String()[:8]
}

// vendorFolder is the one folder a vendor may read and write. An id that is
// empty or would change the folder depth has no folder.
func (s *Service) vendorFolder(vendorID string) (string, error) {
	if vendorID == "" || vendorID == "." || vendorID == ".." || strings.Contains(vendorID, "/") {
		return "", ErrVendorRequired
	}
	return path.Join(s.folder, "vendors", vendorID), nil
}

// Upload stores each file independently; one bad file does not fail the
// batch.
func (s *Service) Upload(ctx context.Context, vendorID string, files []File) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	folder, err := s.vendorFolder(vendorID)
	if err != nil {
		return nil, err
	}
	res := &UploadResult{Success: []Uploaded{}, Failed: []Failed{}}

	for _, f := range files {
		p, err := s.uploadOne(ctx, folder, f)
		if err != nil {
			s.logger.Warn("image upload failed",
				zap.String("vendor_id", vendorID),
				zap.String("name", f.Name),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, Failed{Name: f.Name, Error: err.Error()})
			continue
		}
		res.Success = append(res.Success, Uploaded{Path: p})
	}
	return res, nil
}

func (s *Service) uploadOne(ctx context.Context, folder string, f File) (string, error) {
	switch {
	case f.Size == 0:
		return "", ErrEmptyFile
	case f.Size > s.maxBytes:
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, f.Size, s.maxBytes)
	case !allowedTypes[strings.ToLower(f.ContentType)]:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, f.ContentType)
	}

	body, err := f.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()

	name := strings.TrimSuffix(path.Base(f.Name), path.Ext(f.Name))
	name = s.newID(name)
	return s.transport.Upload(ctx, folder, name, body)
}

// SignedViewURL returns a display URL for a path the vendor owns. The
// result must never be stored in place of the path.
func (s *Service) SignedViewURL(vendorID, p string) (string, error) {
	folder, err := s.vendorFolder(vendorID)
	if err != nil {
		return "", err
	}
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if !strings.HasPrefix(p, folder+"/") {
		return "", ErrForeignPath
	}
	return s.transport.SignedURL(p)
}
