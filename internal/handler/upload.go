package handler

import (
	"errors"
	"net/http"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/logger"
	"github.com/gymflow/backend/pkg/storage"
)

// UploadHandler accepts payment proof files.
type UploadHandler struct {
	store *storage.ProofStorage
}

func NewUploadHandler(store *storage.ProofStorage) *UploadHandler {
	return &UploadHandler{store: store}
}

// Proof handles POST /api/upload (multipart field "file").
func (h *UploadHandler) Proof(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.store.MaxBytes()+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			JSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		Error(w, domain.ErrBadRequest("file is required"))
		return
	}
	defer file.Close()

	url, err := h.store.SaveProof(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		JSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
		return
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmpty):
		Error(w, domain.ErrBadRequest("file must be a JPEG, PNG, WebP, GIF or PDF"))
		return
	case err != nil:
		Error(w, domain.ErrInternal("failed to store upload", err))
		return
	}

	logger.FromContext(r.Context()).Info("payment proof uploaded", "user_id", actor.ID, "url", url)
	JSON(w, http.StatusCreated, map[string]string{"url": url})
}
