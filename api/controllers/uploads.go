package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/primefit/storefront/api/responses"
	"github.com/primefit/storefront/internal/media"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
)

// multipart overhead allowed on top of the file budget
const uploadFormSlack = 1 << 20

type uploadResponse struct {
	PublicURLs []string `json:"public_urls"`
}

// AdminUpload stores the multipart "files" parts under the product's folder.
func AdminUpload(svc media.Service, maxFileBytes int64, maxFiles int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "uploads are not configured"))
			return
		}

		if maxFileBytes > 0 && maxFiles > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes*int64(maxFiles)+uploadFormSlack)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "upload too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File["files"]
		if maxFiles > 0 && len(headers) > maxFiles {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many files").
				WithDetails(map[string]any{"max_files": maxFiles}))
			return
		}

		files := make([]media.File, 0, len(headers))
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open upload"))
				return
			}
			defer func(f multipart.File) { _ = f.Close() }(f)
			files = append(files, media.File{Name: header.Filename, Size: header.Size, Body: f})
		}

		urls, err := svc.UploadImages(r.Context(), r.FormValue("product_id"), files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, uploadResponse{PublicURLs: urls})
	}
}
