package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/ingest"
	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
	"github.com/ProjectApnapan/apnapan-pulse/internal/session"
	"github.com/ProjectApnapan/apnapan-pulse/internal/store"
)

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.deps.Files.ListFiles(r.Context(), schoolID(r))
	if err != nil {
		internalError(w, "error listing files", err)
		return
	}
	if files == nil {
		files = []model.FileEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func fileName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if un, err := url.PathUnescape(name); err == nil {
		name = un
	}
	return name
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	name := fileName(r)
	data, err := s.deps.Files.FetchFile(r.Context(), schoolID(r), name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "File not found.")
		return
	}
	if err != nil {
		internalError(w, "error downloading file", err)
		return
	}
	w.Header().Set("Content-Type", ingest.MIMEType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// uploadFile reads a survey upload, keeps it in the history and analyses
// it. An unreadable file is rejected before anything is stored.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or not a multipart form")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer f.Close() //nolint:errcheck

	name := filepath.Base(hdr.Filename)
	if !ingest.Supported(name) {
		writeError(w, http.StatusUnprocessableEntity, "Unsupported file type. Upload a CSV, TXT, XLS or XLSX file.")
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	st, ok := s.analyze(w, r, name, data)
	if !ok {
		return
	}
	if _, err := s.deps.Files.StoreFile(r.Context(), schoolID(r), name, data); err != nil {
		internalError(w, "error saving file", err)
		return
	}
	if err := s.deps.Sessions.Put(r.Context(), st); err != nil {
		internalError(w, "error saving session", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.summary(st))
}

func (s *Server) analyzeStored(w http.ResponseWriter, r *http.Request) {
	name := fileName(r)
	data, err := s.deps.Files.FetchFile(r.Context(), schoolID(r), name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "File not found.")
		return
	}
	if err != nil {
		internalError(w, "error loading file", err)
		return
	}
	st, ok := s.analyze(w, r, name, data)
	if !ok {
		return
	}
	if err := s.deps.Sessions.Put(r.Context(), st); err != nil {
		internalError(w, "error saving session", err)
		return
	}
	writeJSON(w, http.StatusOK, s.summary(st))
}

// analyze parses and scores a file. On failure it writes a 422 and the
// caller leaves the session alone.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request, name string, data []byte) (*session.State, bool) {
	ds, err := ingest.Load(name, data)
	if err != nil {
		zap.L().Info("api: unreadable upload", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "Error reading file. Check that it is a valid survey table.")
		return nil, false
	}
	res, err := s.deps.Pipeline.Run(ds)
	if err != nil {
		zap.L().Warn("api: analysis failed", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "Error processing file. Check that it is a valid survey table.")
		return nil, false
	}
	return &session.State{
		SchoolID:   schoolID(r),
		SchoolName: schoolName(r),
		FileName:   name,
		Results:    res,
		UpdatedAt:  s.now().UTC(),
	}, true
}
