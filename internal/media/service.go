package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/primefit/storefront/internal/catalog"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/storage/gcs"
)

// newProductFolder holds uploads made before the product has an ID.
const newProductFolder = "novo"

type uploader interface {
	Upload(ctx context.Context, obj gcs.Object) (string, error)
}

// Service uploads product images to object storage.
type Service interface {
	UploadImages(ctx context.Context, productID string, files []File) ([]string, error)
}

// File is one part of a multipart upload.
type File struct {
	Name string
	Size int64
	Body io.Reader
}

// Options carries the optional collaborators of the service.
type Options struct {
	MaxBytes int64
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	store    uploader
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs an upload service writing through store.
func NewService(store uploader, opts Options) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object storage required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:    store,
		maxBytes: opts.MaxBytes,
		logg:     opts.Logger,
		now:      now,
	}, nil
}

func (s *service) UploadImages(ctx context.Context, productID string, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}
	folder, err := objectFolder(productID)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		if file.Body == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body missing")
		}
		if s.maxBytes > 0 && file.Size > s.maxBytes {
			return nil, pkgerrors.New(pkgerrors.CodeTooLarge, "file exceeds upload limit").
				WithDetails(map[string]any{"file": file.Name, "max_bytes": s.maxBytes})
		}

		data, err := io.ReadAll(file.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
		}
		if len(data) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty").
				WithDetails(map[string]any{"file": file.Name})
		}

		contentType, ext := sniff(data)
		objectPath := fmt.Sprintf("%s/%d-%s.%s", folder, s.now().UnixMilli(), safeBaseName(file.Name), ext)

		url, err := s.store.Upload(ctx, gcs.Object{
			Path:         objectPath,
			ContentType:  contentType,
			CacheControl: gcs.CacheControlImmutable,
			Body:         bytes.NewReader(data),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gcs: upload image")
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"object":       objectPath,
				"content_type": contentType,
				"size_bytes":   len(data),
			}), "product image uploaded")
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func objectFolder(productID string) (string, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return newProductFolder, nil
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid product_id")
	}
	return id.String(), nil
}

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// sniff detects the content type from the file bytes; the client supplied
// header is not trusted.
func sniff(data []byte) (string, string) {
	detected := mimetype.Detect(data)
	for candidate := detected; candidate != nil; candidate = candidate.Parent() {
		if ext, ok := imageExtensions[candidate.String()]; ok {
			return candidate.String(), ext
		}
	}
	return detected.String(), "bin"
}

var (
	imageExtRe      = regexp.MustCompile(`(?i)\.(webp|png|jpg|jpeg)$`)
	unsafeNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	dashRunRe       = regexp.MustCompile(`-{2,}`)
)

func safeBaseName(name string) string {
	base := strings.TrimSpace(name)
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	base = imageExtRe.ReplaceAllString(base, "")
	base = strings.ToLower(catalog.StripAccents(base))
	base = unsafeNameChars.ReplaceAllString(base, "-")
	base = strings.Trim(dashRunRe.ReplaceAllString(base, "-"), "-")
	if base == "" {
		return "imagem"
	}
	return base
}
