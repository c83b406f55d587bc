package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/serolab/serolab/internal/core"
	"github.com/serolab/serolab/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "ok",
		"active_imports": s.imports.ActiveCount(),
	})
}

// handleListAnalyses returns summaries of stored analyses, most recent
// first.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.service.PriorAnalyses(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if analyses == nil {
		analyses = []core.AnalysisSummary{}
	}
	writeJSON(w, analyses)
}

// handleGetAnalysis returns one stored analysis in full.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondNoDatabase(w, r)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	analysis, err := s.store.GetAnalysis(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, analysis)
}

// saveAnalysisRequest is the payload for storing a confirmed analysis.
type saveAnalysisRequest struct {
	Spendernummer  string                        `json:"spendernummer"`
	LotNumber      string                        `json:"lot_number"`
	Panel          *core.Dataset                 `json:"panel"`
	Statuses       map[string]core.AntigenStatus `json:"statuses"`
	UserSelections []string                      `json:"user_selections"`
}

// handleSaveAnalysis stores a confirmed analysis, creating the donor
// record on the fly.
func (s *Server) handleSaveAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondNoDatabase(w, r)
		return
	}

	var req saveAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Panel.Empty() {
		s.respondError(w, r, errors.New("empty file"), http.StatusBadRequest)
		return
	}

	analysis := &store.Analysis{
		Spendernummer:  req.Spendernummer,
		LotNumber:      req.LotNumber,
		Panel:          core.Prepare(req.Panel),
		Statuses:       req.Statuses,
		UserSelections: req.UserSelections,
	}
	if err := s.store.SaveAnalysis(r.Context(), analysis); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, analysis)
}

// importResponse carries the outcome of one upload. On failure Dataset
// is null, Confidence is 0, and Message holds the fixed user-facing
// text; the HTTP status stays 200 because a failed extraction is a
// supported workflow outcome, not a server error.
type importResponse struct {
	Dataset    *core.Dataset     `json:"dataset"`
	Confidence float64           `json:"confidence"`
	Message    *core.UserMessage `json:"message,omitempty"`
	Comparison *core.Comparison  `json:"comparison,omitempty"`
}

// handleImport accepts a multipart upload, runs extraction and scoring,
// and, when the client names a stored analysis via the analysis_id form
// field, attaches the reconciliation view.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.imports.Acquire(r.Context()); err != nil {
		w.Header().Set("Retry-After", "10")
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.imports.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		s.respondError(w, r, errors.New("file too large"), http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		s.respondError(w, r, errors.New("empty file"), http.StatusBadRequest)
		return
	}

	dataset, confidence, msg := s.service.HandleUpload(r.Context(), data, header.Filename)
	resp := importResponse{
		Dataset:    dataset,
		Confidence: confidence,
		Message:    msg,
	}

	if idStr := r.FormValue("analysis_id"); idStr != "" && dataset != nil {
		id, err := uuid.Parse(idStr)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		comparison, err := s.service.Compare(r.Context(), dataset, id, confidence)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		resp.Comparison = &comparison
	}

	writeJSON(w, resp)
}

// analyzeRequest is the payload for running the antigen analysis.
type analyzeRequest struct {
	Panel  *core.Dataset `json:"panel"`
	Manual bool          `json:"manual"`
}

type analyzeResponse struct {
	Panel       *core.Dataset        `json:"panel"`
	Result      *core.AnalysisResult `json:"result"`
	SystemTable core.FinalTable      `json:"system_table"`
}

// handleAnalyze normalizes the submitted panel and runs the exclusion
// analysis over it. The response carries the result table built from
// the system's selection; the user refines it client-side.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Panel.Empty() {
		s.respondError(w, r, errors.New("empty file"), http.StatusBadRequest)
		return
	}

	panel := core.Prepare(req.Panel)
	result := core.Analyze(panel, req.Manual)
	writeJSON(w, analyzeResponse{
		Panel:       panel,
		Result:      result,
		SystemTable: core.BuildFinalTable(panel, result.SystemSelection(panel.AntigenColumns()), nil),
	})
}

// reportResponse bundles the report views for a stored analysis: the
// three written reports plus the result tables for the system
// selection, the user selection, and their comparison.
type reportResponse struct {
	Analysis    core.AnalysisSummary   `json:"analysis"`
	Provisional core.ProvisionalReport `json:"provisional"`
	Medical     core.MedicalReport     `json:"medical"`
	Lab         core.LabReport         `json:"lab"`
	SystemTable core.FinalTable        `json:"system_table"`
	UserTable   core.FinalTable        `json:"user_table"`
	Comparison  core.FinalTable        `json:"comparison_table"`
}

// handleReport builds the provisional, medical, and lab-technical
// reports for a stored analysis. Exclusion reasons are recomputed from
// the panel; statuses saved by the user take precedence over the
// recomputed ones.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondNoDatabase(w, r)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	analysis, err := s.store.GetAnalysis(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	result := core.Analyze(analysis.Panel, false)
	for ag, status := range analysis.Statuses {
		result.Statuses[ag] = status
	}

	antigens := analysis.Panel.AntigenColumns()
	system := result.SystemSelection(antigens)

	// Union of both selections in panel column order, so the comparison
	// table shows every antigen either side kept.
	selected := make(map[string]bool, len(analysis.UserSelections))
	for _, ag := range analysis.UserSelections {
		selected[ag] = true
	}
	inSystem := make(map[string]bool, len(system))
	for _, ag := range system {
		inSystem[ag] = true
	}
	var union []string
	for _, ag := range antigens {
		if selected[ag] || inSystem[ag] {
			union = append(union, ag)
		}
	}

	writeJSON(w, reportResponse{
		Analysis: core.AnalysisSummary{
			ID:            analysis.ID,
			Spendernummer: analysis.Spendernummer,
			LotNumber:     analysis.LotNumber,
			Timestamp:     analysis.CreatedAt,
		},
		Provisional: core.BuildProvisionalReport(result, analysis.UserSelections),
		Medical:     core.BuildMedicalReport(analysis.Panel, result, analysis.UserSelections),
		Lab:         core.BuildLabReport(analysis.Panel, result, analysis.UserSelections),
		SystemTable: core.BuildFinalTable(analysis.Panel, system, nil),
		UserTable:   core.BuildFinalTable(analysis.Panel, analysis.UserSelections, nil),
		Comparison:  core.BuildFinalTable(analysis.Panel, union, analysis.UserSelections),
	})
}

// respondNoDatabase reports that persistence is not configured.
func (s *Server) respondNoDatabase(w http.ResponseWriter, r *http.Request) {
	respondErrorJSON(w, core.UserMessage{
		Message: "Keine Datenbank konfiguriert",
		Action:  "Setzen Sie DATABASE_URL und starten Sie den Server neu",
		Code:    "DB003",
	}, http.StatusServiceUnavailable)
}

// decodeJSON decodes a JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
