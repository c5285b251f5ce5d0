package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"github.com/gorilla/mux"
)

// Handler wires the attempt, aggregation, and export use cases to HTTP.
type Handler struct {
	attempts     *app.AttemptService
	aggregations *app.AggregationService
	exports      *app.ExportService
	logger       *log.Logger
}

func NewHandler(attempts *app.AttemptService, aggregations *app.AggregationService, exports *app.ExportService, logger *log.Logger) *Handler {
	return &Handler{
		attempts:     attempts,
		aggregations: aggregations,
		exports:      exports,
		logger:       logger,
	}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/attempts", h.submitAttempt).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}/score-series", h.userQuizSeries).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/last-attempts", h.userLastAttempts).Methods(http.MethodGet)
	api.HandleFunc("/companies/{companyId}/users/{userId}/score", h.userCompanyScore).Methods(http.MethodGet)
	api.HandleFunc("/companies/{companyId}/attempts", h.companyRosterAttempts).Methods(http.MethodGet)
	api.HandleFunc("/companies/{companyId}/score-series", h.companyUserSeries).Methods(http.MethodGet)
	api.HandleFunc("/companies/{companyId}/members/last-attempts", h.companyMemberLastAttempts).Methods(http.MethodGet)
	api.HandleFunc("/export", h.export).Methods(http.MethodGet)
	api.HandleFunc("/export/user", h.exportByEmail).Methods(http.MethodGet)
	return r
}

type submitRequest struct {
	QuizID  string                    `json:"quizId"`
	UserID  string                    `json:"userId"`
	Answers []domain.AnswerSubmission `json:"answers"`
}

type submitResponse struct {
	domain.SubmissionReceipt
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuizID == "" || req.UserID == "" || len(req.Answers) == 0 {
		h.writeError(w, http.StatusBadRequest, "quizId, userId, and answers are required")
		return
	}

	receipt, err := h.attempts.Submit(r.Context(), req.QuizID, req.UserID, req.Answers)
	if errors.Is(err, domain.ErrSnapshotWrite) {
		// The score is durable; only the evidence cache write failed. Report
		// the partial outcome instead of hiding it.
		h.logger.Printf("snapshot write failed for attempt %s: %v", receipt.AttemptID, err)
		h.writeJSON(w, http.StatusOK, submitResponse{
			SubmissionReceipt: receipt,
			Warning:           "attempt recorded, but evidence snapshot could not be stored",
		})
		return
	}
	if errors.Is(err, domain.ErrNoQuestionsScored) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, submitResponse{SubmissionReceipt: receipt})
}

func (h *Handler) userQuizSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.aggregations.UserQuizSeries(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, series)
}

func (h *Handler) userLastAttempts(w http.ResponseWriter, r *http.Request) {
	latest, err := h.aggregations.UserLastAttempts(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, latest)
}

type companyScoreResponse struct {
	Score string `json:"score,omitempty"`
	Found bool   `json:"found"`
}

func (h *Handler) userCompanyScore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	score, ok, err := h.aggregations.UserCompanyScore(r.Context(), vars["companyId"], vars["userId"])
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, companyScoreResponse{Score: score, Found: ok})
}

func (h *Handler) companyRosterAttempts(w http.ResponseWriter, r *http.Request) {
	roster, err := h.aggregations.CompanyRosterAttempts(r.Context(), mux.Vars(r)["companyId"])
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, roster)
}

func (h *Handler) companyUserSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.aggregations.CompanyUserSeries(r.Context(), mux.Vars(r)["companyId"])
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, series)
}

func (h *Handler) companyMemberLastAttempts(w http.ResponseWriter, r *http.Request) {
	latest, err := h.aggregations.CompanyMemberLastAttempts(r.Context(), mux.Vars(r)["companyId"])
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, latest)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := app.ExportFilter{
		CompanyID: query.Get("companyId"),
		UserID:    query.Get("userId"),
		QuizID:    query.Get("quizId"),
	}
	if filter.CompanyID == "" {
		h.writeError(w, http.StatusBadRequest, "companyId is required")
		return
	}

	result, err := h.exports.Export(r.Context(), filter, exportFormat(query.Get("format")))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeExport(w, result)
}

func (h *Handler) exportByEmail(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	email := query.Get("email")
	if email == "" {
		h.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	result, err := h.exports.ExportByEmail(r.Context(), email, exportFormat(query.Get("format")))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeExport(w, result)
}

func exportFormat(raw string) string {
	if raw == "" {
		return app.FormatJSON
	}
	return raw
}

func writeExport(w http.ResponseWriter, result domain.ExportResult) {
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Payload)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnsupportedFormat):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Printf("request failed: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Message: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Printf("write response: %v", err)
	}
}
