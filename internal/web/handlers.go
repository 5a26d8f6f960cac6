package web

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zilohq/catalog-transform/internal/engine"
	"github.com/zilohq/catalog-transform/internal/logging"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListTemplates returns the available template schemas.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"templates": s.service.ListTemplates()})
}

// handleGetTemplate returns one template schema.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.GetTemplate(chi.URLParam(r, "templateKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, t)
}

// handleGetMapping returns the saved default mapping for a template, or
// empty defaults when none were saved.
func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.GetDefaultMapping(r.Context(), chi.URLParam(r, "templateKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// handleSaveMapping stores the posted mapping and cleanup selection as the
// template's defaults. Accepts form fields "mapping" and "textCleanup" as
// JSON payloads.
func (s *Server) handleSaveMapping(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, engine.Validationf("invalid mapping payload: %v", err))
		return
	}

	mapping, err := engine.ParseMapping(r.PostFormValue("mapping"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	cleanup, err := engine.ParseCleanupConfig(r.PostFormValue("textCleanup"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	templateKey := chi.URLParam(r, "templateKey")
	d := engine.Defaults{Mapping: mapping, Cleanup: cleanup}
	if err := s.service.SaveDefaultMapping(r.Context(), templateKey, d); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]bool{"ok": true})
}

// handleTransformPreview parses the upload and reports unmapped fields and
// row/group counts so the caller can decide to proceed or abort.
func (s *Server) handleTransformPreview(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseTransformForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.Preview(r.Context(), *req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleTransform runs the full conversion and returns the output CSV as an
// attachment. The dropped-row count is surfaced in the X-Dropped-Rows
// header so the caller can report it.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseTransformForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	jobID := uuid.New().String()
	logger := logging.WithFields(r.Context(), "job_id", jobID, "template", req.TemplateKey)

	result, err := s.service.Transform(r.Context(), *req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger.Info("transform complete",
		"records", result.Records,
		"dropped_rows", result.DroppedRows,
		"unmapped_fields", len(result.Unmapped),
	)

	filename := filepath.Base(result.Filename)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Dropped-Rows", strconv.Itoa(result.DroppedRows))
	if len(result.Unmapped) > 0 {
		w.Header().Set("X-Unmapped-Fields", strings.Join(result.Unmapped, ", "))
	}
	w.Write(result.CSV)
}

// parseTransformForm reads the multipart transform request: file,
// templateKey, mapping, textCleanup, filename.
func (s *Server) parseTransformForm(w http.ResponseWriter, r *http.Request) (*engine.TransformRequest, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, engine.Validationf("invalid csv: file too large or malformed form: %v", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, engine.Validationf("empty file: no file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, engine.Validationf("invalid csv: could not read upload: %v", err)
	}

	mapping, err := engine.ParseMapping(r.FormValue("mapping"))
	if err != nil {
		return nil, err
	}
	cleanup, err := engine.ParseCleanupConfig(r.FormValue("textCleanup"))
	if err != nil {
		return nil, err
	}

	return &engine.TransformRequest{
		TemplateKey: r.FormValue("templateKey"),
		File:        data,
		Mapping:     mapping,
		Cleanup:     cleanup,
		Filename:    r.FormValue("filename"),
	}, nil
}
