package handlers

// Attachment presigned-URL handlers. The server never sees plaintext or
// ciphertext bytes; clients upload/download straight to object storage.
// Adapted from the teacher's media-upload handlers against
// internal/attachments.

import (
	"net/http"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/attachments"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/logging"
)

// AttachmentUploadURL godoc
// @Router /attachments/upload-url [post]
func AttachmentUploadURL(svc *attachments.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		url, objectKey, err := svc.UploadURL(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"upload_url": url, "object_key": objectKey})
	}
}

// AttachmentDownloadURL godoc
// @Router /attachments/download-url [get]
func AttachmentDownloadURL(svc *attachments.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := callerIdentity(w, r, log); !ok {
			return
		}
		objectKey := r.URL.Query().Get("object_key")
		if objectKey == "" {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "object_key is required"))
			return
		}
		url, err := svc.DownloadURL(r.Context(), objectKey)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"download_url": url})
	}
}
