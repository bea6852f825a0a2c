package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/reports"
)

// Admin routes cover the reviewer-side transitions and catalog
// maintenance. Authorization for them lives at the gateway, like
// identity does for the engineer routes.

func (h *handlers) reviewerTransition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request id")
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	req, err := h.eng.ApplyReviewerTransition(r.Context(), id, requests.Status(in.Status))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *handlers) registerPart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name       string `json:"name"`
		Unit       string `json:"unit"`
		HighVolume *bool  `json:"high_volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	p, err := h.eng.RegisterPart(r.Context(), in.Name, in.Unit, in.HighVolume)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) purgeCancelled(w http.ResponseWriter, r *http.Request) {
	n, err := h.eng.PurgeCancelled(r.Context(), engineerID(r))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}

func (h *handlers) exportAdjustments(w http.ResponseWriter, r *http.Request) {
	adjs, err := h.eng.Adjustments(r.Context(), engineerID(r), 1000)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	f, err := reports.AdjustmentsXLSX(adjs)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.serveXLSX(w, f, "adjustments")
}

func (h *handlers) exportUsage(w http.ResponseWriter, r *http.Request) {
	reps, err := h.eng.ListUsageReports(r.Context(), engineerID(r), 1000)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	f, err := reports.UsageXLSX(reps)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.serveXLSX(w, f, "usage")
}

func (h *handlers) serveXLSX(w http.ResponseWriter, f *excelize.File, prefix string) {
	defer func() { _ = f.Close() }()
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		h.log.Error("xlsx write failed", "err", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	name := fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}
