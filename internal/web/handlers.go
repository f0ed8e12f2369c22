package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/scnpatch/internal/core"
	"github.com/JonMunkholm/scnpatch/internal/logging"
	"github.com/JonMunkholm/scnpatch/internal/patchsheet"
	"github.com/JonMunkholm/scnpatch/internal/scene"
	"github.com/JonMunkholm/scnpatch/internal/web/templates"
)

const (
	// formSlack covers multipart framing and the option fields sent with
	// the scene part.
	formSlack = 64 << 10

	// formMemory is how much of a multipart body is held in memory before
	// spilling to temp files.
	formMemory = 1 << 20

	defaultFilename = "scene.scn"
)

var errInvalidForm = errors.New("invalid upload form")

// SceneResponse is the body of POST /api/scene.
type SceneResponse struct {
	ID         string            `json:"id" yaml:"id"`
	Filename   string            `json:"filename" yaml:"filename"`
	Bytes      int64             `json:"bytes" yaml:"bytes"`
	DurationMS int64             `json:"duration_ms" yaml:"duration_ms"`
	Scene      scene.Snapshot    `json:"scene" yaml:"scene"`
	Sheet      *patchsheet.Sheet `json:"sheet" yaml:"sheet"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string             `json:"status"`
	Parses core.LimiterStatus `json:"parses"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	render(w, r, templates.UploadForm(s.cfg.Upload.MaxSceneSize))
}

// handleGenerate parses the uploaded scene and renders its patch sheet.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		respondError(w, r, core.ErrNoScene, http.StatusBadRequest)
		return
	}

	res, err := s.parseUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	sheet, err := patchsheet.Build(res.Scene, patchsheet.ParseOptions(r.FormValue))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	render(w, r, templates.PatchSheet(sheet, templates.SheetMeta{
		ParseID:  res.ID.String(),
		Filename: res.Filename,
		Duration: res.Duration,
	}))
}

// handleAPIScene parses a scene sent either as a multipart "scene" part or
// as the raw request body (named by ?filename=) and returns the model and
// the resolved sheet.
func (s *Server) handleAPIScene(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	sheet, err := patchsheet.Build(res.Scene, patchsheet.ParseOptions(r.FormValue))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	resp := SceneResponse{
		ID:         res.ID.String(),
		Filename:   res.Filename,
		Bytes:      res.Bytes,
		DurationMS: res.Duration.Milliseconds(),
		Scene:      res.Scene.Snapshot(),
		Sheet:      sheet,
	}
	if r.URL.Query().Get("format") == "yaml" {
		writeYAML(w, r, http.StatusOK, resp)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.History(r.Context(), parseIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.History(r.Context(), parseIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	render(w, r, templates.History(entries))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ok",
		Parses: s.service.LimiterStatus(),
	})
}

// parseUpload bounds the request body and hands the scene to the service.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*core.ParseResult, error) {
	limit := s.cfg.Upload.MaxSceneSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+formSlack)
	ctx := withClient(r)

	if !isMultipart(r) {
		up := core.SceneUpload{
			Filename: r.URL.Query().Get("filename"),
			Body:     r.Body,
		}
		if up.Filename == "" {
			up.Filename = defaultFilename
		}
		if r.ContentLength > 0 {
			up.Size = r.ContentLength
		}
		return s.service.ParseScene(ctx, up)
	}

	if err := r.ParseMultipartForm(formMemory); err != nil {
		return nil, formError(err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("scene")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, core.ErrNoScene
		}
		return nil, formError(err)
	}
	defer file.Close()

	return s.service.ParseScene(ctx, core.SceneUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
}

func formError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return fmt.Errorf("%w: %v", core.ErrSceneTooLarge, err)
	}
	return fmt.Errorf("%w: %v", errInvalidForm, err)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render failed", "path", r.URL.Path, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("encode json response", "error", err)
	}
}

func writeYAML(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(status)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("encode yaml response", "error", err)
	}
	enc.Close()
}
