package reports

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	devices "energy-cloud/internal/devices/domain"
)

func fleet() []devices.Device {
	return []devices.Device{
		{ID: "d1", Name: "AC", MaximumConsumption: 2.5, PowerConsumption: 1.2, OwnerID: "user-1"},
		{ID: "d2", Name: "Heater", MaximumConsumption: 3, PowerConsumption: 1.5},
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	summary := Summarize(fleet(), now)

	if summary.Total != 2 || summary.Assigned != 1 || summary.Available != 1 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if math.Abs(summary.TotalMaximum-5.5) > 1e-9 {
		t.Fatalf("expected total maximum 5.5, got %f", summary.TotalMaximum)
	}
	if math.Abs(summary.TotalPower-2.7) > 1e-9 {
		t.Fatalf("expected total power 2.7, got %f", summary.TotalPower)
	}
	if !summary.GeneratedAt.Equal(now) {
		t.Fatalf("expected generated at %s, got %s", now, summary.GeneratedAt)
	}
}

func TestBuildFleetPDF(t *testing.T) {
	list := fleet()
	payload, err := BuildFleetPDF(list, Summarize(list, time.Now()))
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatal("expected PDF header")
	}
}

func TestBuildFleetXLSX(t *testing.T) {
	list := fleet()
	payload, err := BuildFleetXLSX(list, Summarize(list, time.Now()))
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(payload, []byte("PK")) {
		t.Fatal("expected zip header")
	}

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	// powerConsumption is an instantaneous rate, so the columns carry kW.
	for cell, want := range map[string]string{"D1": "Max (kW)", "E1": "Power (kW)"} {
		got, err := f.GetCellValue("devices", cell)
		if err != nil {
			t.Fatalf("get cell %s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("cell %s: expected %q, got %q", cell, want, got)
		}
	}
}
