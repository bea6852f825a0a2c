package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/engine"
	"github.com/fieldstock/partsdesk/internal/errs"
)

type handlers struct {
	eng *engine.Engine
	log *slog.Logger
}

type ctxKey int

const engineerKey ctxKey = 0

// requireEngineer threads the caller's engineer id from the gateway
// header. Identity itself is verified upstream; the engine only needs to
// know on whose behalf it acts.
func (h *handlers) requireEngineer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Engineer-ID")
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Engineer-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), engineerKey, id)))
	})
}

func engineerID(r *http.Request) string {
	id, _ := r.Context().Value(engineerKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func (h *handlers) writeEngineError(w http.ResponseWriter, err error) {
	var (
		validation *errs.ValidationError
		state      *errs.InvalidStateError
		short      *errs.InsufficientStockError
		conflict   *errs.ConcurrencyConflictError
		storage    *errs.StorageError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &state):
		writeError(w, http.StatusConflict, state.Error())
	case errors.As(err, &short):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     short.Error(),
			"part_id":   short.PartID,
			"requested": short.Requested,
			"available": short.Available,
		})
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &storage):
		h.log.Error("storage failure", "err", err)
		writeError(w, http.StatusBadGateway, "storage unavailable, retry the operation")
	default:
		h.log.Error("unexpected failure", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

/* Requests */

type requestPayload struct {
	Period string          `json:"period"`
	Items  []requests.Item `json:"items"`
}

func (h *handlers) createRequest(w http.ResponseWriter, r *http.Request) {
	var in requestPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	req, err := h.eng.CreateRequest(r.Context(), engineerID(r), in.Period, in.Items)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *handlers) listRequests(w http.ResponseWriter, r *http.Request) {
	out, err := h.eng.ListRequests(r.Context(), engineerID(r), r.URL.Query().Get("period"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request id")
		return
	}
	req, err := h.eng.GetRequest(r.Context(), engineerID(r), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *handlers) editRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request id")
		return
	}
	var in requestPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	req, err := h.eng.EditRequest(r.Context(), engineerID(r), id, in.Items)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *handlers) cancelRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request id")
		return
	}
	if err := h.eng.CancelRequest(r.Context(), engineerID(r), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) confirmReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request id")
		return
	}
	req, adjs, err := h.eng.ConfirmReceipt(r.Context(), engineerID(r), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"request": req, "adjustments": adjs})
}

/* Usage reports */

type usagePayload struct {
	SONumber    string                  `json:"so_number"`
	Description string                  `json:"description"`
	Items       []engine.UsageItemInput `json:"items"`
}

func (h *handlers) submitUsageReport(w http.ResponseWriter, r *http.Request) {
	var in usagePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	rep, err := h.eng.SubmitUsageReport(r.Context(), engineerID(r), in.SONumber, in.Description, in.Items)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (h *handlers) listUsageReports(w http.ResponseWriter, r *http.Request) {
	out, err := h.eng.ListUsageReports(r.Context(), engineerID(r), 100)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

/* Stock */

func (h *handlers) listStock(w http.ResponseWriter, r *http.Request) {
	belowMin := r.URL.Query().Get("below_min") == "true"
	out, err := h.eng.StockEntries(r.Context(), engineerID(r), belowMin)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) setMinStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PartID   int64 `json:"part_id"`
		MinStock int64 `json:"min_stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := h.eng.SetMinStock(r.Context(), engineerID(r), in.PartID, in.MinStock); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listAdjustments(w http.ResponseWriter, r *http.Request) {
	out, err := h.eng.Adjustments(r.Context(), engineerID(r), 100)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) listParts(w http.ResponseWriter, r *http.Request) {
	out, err := h.eng.ListParts(r.Context(), true)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
