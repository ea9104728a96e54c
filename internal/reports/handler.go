package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	devices "energy-cloud/internal/devices/domain"
	"energy-cloud/internal/observability/metrics"
)

// DeviceLister provides the fleet snapshot for export.
type DeviceLister interface {
	List(ctx context.Context) ([]devices.Device, error)
}

// Handler serves fleet exports under /admin/reports.
type Handler struct {
	devices DeviceLister
	now     func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(lister DeviceLister) (*Handler, error) {
	if lister == nil {
		return nil, errors.New("reports handler: nil device lister")
	}
	return &Handler{devices: lister, now: time.Now}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/admin/reports/devices.xlsx":
		h.handleExport(w, r, "xlsx")
	case "/admin/reports/devices.pdf":
		h.handleExport(w, r, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	started := h.now()
	list, err := h.devices.List(r.Context())
	if err != nil {
		metrics.RecordReportExport(format, false, h.now().Sub(started))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	summary := Summarize(list, h.now())

	var payload []byte
	var contentType string
	switch format {
	case "xlsx":
		payload, err = BuildFleetXLSX(list, summary)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = BuildFleetPDF(list, summary)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.RecordReportExport(format, false, h.now().Sub(started))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	metrics.RecordReportExport(format, true, h.now().Sub(started))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=devices-%s.%s", summary.GeneratedAt.Format("20060102"), format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
