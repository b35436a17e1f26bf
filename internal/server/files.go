package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/truthline/truthline/internal/storage"
)

var validFileUsages = map[string]bool{
	"analysis": true,
	"spam":     true,
	"report":   true,
}

// handleUploadFile stores one multipart file under the configured upload
// directory and records its metadata. The optional "usage" form field
// tags what the file was uploaded for.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := r.ParseMultipartForm(s.maxBodyBytes); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	usage := r.FormValue("usage")
	if usage == "" {
		usage = "analysis"
	}
	if !validFileUsages[usage] {
		s.sendError(w, http.StatusBadRequest, "usage must be one of analysis, spam or report")
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		s.logger.Error("Failed to create upload directory", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	storedName := fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(header.Filename))
	storagePath := filepath.Join(s.uploadDir, storedName)

	dst, err := os.Create(storagePath)
	if err != nil {
		s.logger.Error("Failed to create upload file", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	size, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.logger.Error("Failed to write upload file", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	user := currentUser(r)
	upload, err := s.store.CreateFileUpload(r.Context(), &storage.FileUpload{
		UserID:       user.ID,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         size,
		StoragePath:  filepath.ToSlash(storagePath),
		Usage:        usage,
	})
	if err != nil {
		s.logger.Error("Failed to persist file upload", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to persist file upload")
		return
	}

	s.sendJSON(w, http.StatusCreated, envelope{Success: true, Message: "File uploaded", Data: upload})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	uploads, err := s.store.ListFileUploadsByUser(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("Failed to list file uploads", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to list file uploads")
		return
	}
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: uploads})
}
