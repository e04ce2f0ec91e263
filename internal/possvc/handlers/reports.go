package handlers

import (
	"net/http"
	"time"
)

// SalesReportHandler aggregates day logs over an inclusive date range
// (?start=YYYY-MM-DD&end=YYYY-MM-DD). Days with no log file contribute
// nothing.
func (h *Handler) SalesReportHandler(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "start date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "end date must be YYYY-MM-DD"})
		return
	}

	rep, err := h.aggregator.Generate(start, end)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: err.Error()})
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: rep})
}
