package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/storage"
)

type UploadHandler struct {
	files   storage.Storage
	maxSize int64
}

func NewUploadHandler(files storage.Storage, maxSize int64) *UploadHandler {
	return &UploadHandler{files: files, maxSize: maxSize}
}

// Upload stores one or more files sent as multipart "files" (or "file") and
// returns their attachment references.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "multipart form expected")
		return
	}
	headers := append(form.File["files"], form.File["file"]...)
	if len(headers) == 0 {
		badRequest(c, "no files uploaded")
		return
	}
	if len(headers) > storage.MaxFilesPerRequest {
		badRequest(c, fmt.Sprintf("at most %d files per request", storage.MaxFilesPerRequest))
		return
	}
	for _, fh := range headers {
		if _, err := storage.KindOf(fh.Filename); err != nil {
			writeError(c, err)
			return
		}
		if h.maxSize > 0 && fh.Size > h.maxSize {
			fail(c, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("%s exceeds %d bytes", fh.Filename, h.maxSize), "files")
			return
		}
	}

	u, _ := currentUser(c)
	saved := make([]model.Attachment, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.rollback(c, saved)
			writeError(c, err)
			return
		}
		a, err := h.files.Save(c.Request.Context(), fh.Filename, f)
		f.Close()
		if err != nil {
			h.rollback(c, saved)
			writeError(c, err)
			return
		}
		a.UploadedBy = u.Name
		saved = append(saved, a)
	}
	respond(c, http.StatusCreated, fmt.Sprintf("%d file(s) uploaded", len(saved)), saved)
}

func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "file deleted", nil)
}

func (h *UploadHandler) rollback(c *gin.Context, saved []model.Attachment) {
	for _, a := range saved {
		_ = h.files.Delete(c.Request.Context(), a.ID)
	}
}
