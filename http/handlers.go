package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"loanapproval/loan"
)

// Predictor scores a loan record; *loan.Service implements it.
type Predictor interface {
	Predict(ctx context.Context, record loan.Record) (loan.Verdict, error)
}

type Handler struct {
	service   Predictor
	templates Renderer
	logger    *zap.Logger
}

func NewHandler(service Predictor, templates Renderer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, templates: templates, logger: log}
}

func RegisterHandlers(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("POST /predict_api", h.handlePredictAPI)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
}

type predictionResponse struct {
	Status     string         `json:"status"`
	LoanStatus string         `json:"loan_status"`
	Confidence string         `json:"confidence"`
	InputData  map[string]any `json:"input_data"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.templates.Render(&buf, PageData{}); err != nil {
		h.logger.Error("failed to render home page", zap.Error(err))
		http.Error(w, fmt.Sprintf("Error rendering home page: %v", err), http.StatusInternalServerError)
		return
	}
	writeHTML(w, &buf)
}

// handlePredictAPI passes the decoded object to the model untouched; every
// failure, including malformed JSON, is reported as a 500.
func (h *Handler) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var data map[string]any
	err := decoder.Decode(&data)
	if err == nil {
		if _, tokErr := decoder.Token(); tokErr != io.EOF {
			err = errors.New("invalid JSON: unexpected data after top-level value")
		}
	}
	if err != nil {
		h.logger.Warn("invalid prediction payload", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: err.Error()})
		return
	}

	verdict, err := h.service.Predict(r.Context(), loan.Record(data))
	if err != nil {
		h.logger.Warn("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, predictionResponse{
		Status:     "success",
		LoanStatus: verdict.Label,
		Confidence: verdict.ConfidenceText(),
		InputData:  data,
	})
}

// handlePredictForm always answers 200 with a page; errors are shown inline.
func (h *Handler) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, PageData{PredictionText: fmt.Sprintf("Unexpected error: %v", err)})
		return
	}

	record, formData, err := loan.RecordFromForm(r.PostForm)
	if err != nil {
		h.renderPage(w, PageData{PredictionText: formErrorText(err)})
		return
	}

	verdict, err := h.service.Predict(r.Context(), record)
	if err != nil {
		h.logger.Warn("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		h.renderPage(w, PageData{PredictionText: fmt.Sprintf("Unexpected error: %v", err)})
		return
	}

	text := "❌ Loan Rejected"
	if verdict.Approved() {
		text = "✅ Loan Approved"
	}
	h.renderPage(w, PageData{
		PredictionText: text,
		Confidence:     loan.FormatPercent(verdict.Confidence),
		FormData:       formData,
	})
}

func formErrorText(err error) string {
	var missing *loan.MissingFieldError
	var invalid *loan.InvalidNumberError
	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("Missing input: '%s'", missing.Field)
	case errors.As(err, &invalid):
		return fmt.Sprintf("Invalid input: %v", invalid)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, data PageData) {
	var buf bytes.Buffer
	if err := h.templates.Render(&buf, data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, fmt.Sprintf("Error rendering page: %v", err), http.StatusInternalServerError)
		return
	}
	writeHTML(w, &buf)
}

func writeHTML(w http.ResponseWriter, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
