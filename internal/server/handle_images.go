package server

import (
	"io"
	"net/http"

	"github.com/playperu/cityhunt/internal/images"
)

const maxImageBytes = 10 << 20

// UploadImageResponse carries the durable URL to reference in a submission.
type UploadImageResponse struct {
	URL string `json:"url"`
}

func handleUploadImage(store Store, imgs images.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := userFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
		r.Body.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading request body")
			return
		}
		if len(data) == 0 {
			writeError(w, http.StatusBadRequest, "empty image payload")
			return
		}
		if len(data) > maxImageBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "image exceeds 10 MiB")
			return
		}

		url, err := imgs.Store(r.Context(), data, r.Header.Get("Content-Type"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, UploadImageResponse{URL: url})
	}
}
