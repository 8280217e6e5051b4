package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/media"
)

func (h *Handler) listProductMedia(w http.ResponseWriter, r *http.Request) {
	items, err := h.media.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mediaList(items))
}

// uploadMedia accepts a multipart form with a "file" part and an optional
// "alt_text" field.
func (h *Handler) uploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, errors.Wrap(errMalformedBody, "upload too large"))
			return
		}
		writeError(w, r, errors.Wrap(errMalformedBody, err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, errors.Wrap(errMalformedBody, "file part required"))
		return
	}
	defer func() { _ = file.Close() }()

	m, err := h.media.Upload(r.Context(), media.Upload{
		ProductID:   chi.URLParam(r, "id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		AltText:     r.FormValue("alt_text"),
		Body:        file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mediaBody{m: *m})
}

func (h *Handler) deleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := h.media.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
