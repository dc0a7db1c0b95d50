package v1handler

import (
	"errors"
	"fmt"
	"io"
	"lending/pkg/serrors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// DocumentField is the multipart form field carrying the upload.
	DocumentField = "document"

	// multipartOverhead is the room left in the request body for multipart
	// boundaries and part headers on top of the file itself.
	multipartOverhead = 64 << 10
)

// UploadDocument extracts and stores the uploaded file.
func (h *Handler) UploadDocument(c *gin.Context) {
	ctx := c.Request.Context()
	limit := h.deps.MaxUploadBytes
	tooLarge := serrors.With(serrors.ErrRejectedInput, "file exceeds %d bytes", limit)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	header, err := c.FormFile(DocumentField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.abort(c, tooLarge)

			return
		}
		h.abort(c, serrors.Wrap(serrors.ErrRejectedInput, err, "no file uploaded"))

		return
	}
	if header.Size > limit {
		h.abort(c, tooLarge)

		return
	}

	file, err := header.Open()
	if err != nil {
		h.abort(c, fmt.Errorf("could not open upload: %w", err))

		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.abort(c, fmt.Errorf("could not read upload: %w", err))

		return
	}
	if int64(len(data)) > limit {
		h.abort(c, tooLarge)

		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	doc, err := h.deps.Extractor.Extract(ctx, GetUserIDFromContext(ctx), data, header.Filename, mimeType)
	if err != nil {
		h.abort(c, err)

		return
	}

	c.JSON(http.StatusCreated, doc)
}
