package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

func setupExportService() (*fixture, ExportService) {
	f := newFixture()
	svc := NewExportService(f.db.repository(), zap.NewNop())
	svc.(*exportService).now = fixedClock()

	f.shiftOn("s-alice-mon", f.alice, "2026-03-02", "09:00", "15:00", 30)
	f.shiftOn("s-alice-tue", f.alice, "2026-03-03", "12:00", "18:00", 0)
	f.shiftOn("s-bob-mon", f.bob, "2026-03-02", "14:00", "20:00", 0)
	f.db.addShift(model.Shift{
		ShiftID:    "s-bob-wed",
		ScheduleID: testScheduleID,
		EmployeeID: f.bob.EmployeeID,
		Date:       mustDate("2026-03-04"),
		StartTime:  "09:00",
		EndTime:    "13:00",
		Status:     model.ShiftCalledOut,
	})
	return f, svc
}

func publish(f *fixture) {
	f.db.mu.Lock()
	f.db.schedules[testScheduleID].Status = model.SchedulePublished
	f.db.mu.Unlock()
}

// ── XLSX ──

func TestExportService_ScheduleXLSX(t *testing.T) {
	f, svc := setupExportService()

	buf, filename, err := svc.ScheduleXLSX(context.Background(), f.manager, testScheduleID)
	if err != nil {
		t.Fatalf("ScheduleXLSX: %v", err)
	}
	if filename != "schedule_DT_2026-03-02.xlsx" {
		t.Errorf("unexpected filename %s", filename)
	}

	x, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer x.Close()

	get := func(c string) string {
		v, err := x.GetCellValue(exportSheet, c)
		if err != nil {
			t.Fatalf("read %s: %v", c, err)
		}
		return v
	}
	cases := map[string]string{
		"A2": "Employee",
		"B2": "Mon 02/03",
		"I2": "Total hours",
		"A3": "Alice Adams",
		"B3": "09:00-15:00",
		"C3": "12:00-18:00",
		"D3": "-",
		"I3": "11.5",
		"A4": "Bob Baker",
		"D4": "09:00-13:00 (called out)",
		"I4": "6",
		"A5": "Carol Clark",
		"I5": "0",
		"A6": "Total",
		"B6": "11.5",
		"I6": "17.5",
	}
	for c, want := range cases {
		if got := get(c); got != want {
			t.Errorf("%s: expected %q, got %q", c, want, got)
		}
	}
}

func TestExportService_EmployeeSeesPublishedOnly(t *testing.T) {
	f, svc := setupExportService()
	ctx := context.Background()

	if _, _, err := svc.ScheduleXLSX(ctx, f.as(f.alice), testScheduleID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound for a draft, got %v", err)
	}
	publish(f)
	if _, _, err := svc.ScheduleXLSX(ctx, f.as(f.alice), testScheduleID); err != nil {
		t.Errorf("published schedule: %v", err)
	}

	other := jwt.Identity{UserID: "user-x", Role: model.RoleManager, StoreID: "store-2"}
	if _, _, err := svc.ScheduleXLSX(ctx, other, testScheduleID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for another store, got %v", err)
	}
}

// ── ICS ──

func TestExportService_ScheduleICS(t *testing.T) {
	f, svc := setupExportService()
	ctx := context.Background()
	publish(f)

	tests := []struct {
		name   string
		caller func() jwt.Identity
		want   []string
	}{
		{"manager sees all active shifts", func() jwt.Identity { return f.manager }, []string{"s-alice-mon", "s-alice-tue", "s-bob-mon"}},
		{"employee sees own shifts", func() jwt.Identity { return f.as(f.alice) }, []string{"s-alice-mon", "s-alice-tue"}},
		{"called-out shifts are dropped", func() jwt.Identity { return f.as(f.bob) }, []string{"s-bob-mon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, filename, err := svc.ScheduleICS(ctx, tt.caller(), testScheduleID)
			if err != nil {
				t.Fatalf("ScheduleICS: %v", err)
			}
			if filename != "schedule_DT_2026-03-02.ics" {
				t.Errorf("unexpected filename %s", filename)
			}
			cal, err := ics.ParseCalendar(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			got := map[string]bool{}
			for _, e := range cal.Events() {
				got[e.Id()] = true
			}
			if len(got) != len(tt.want) {
				t.Errorf("expected %d events, got %v", len(tt.want), got)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing event %s", id)
				}
			}
		})
	}
}

func TestExportService_ScheduleICS_EventTimes(t *testing.T) {
	f, svc := setupExportService()

	data, _, err := svc.ScheduleICS(context.Background(), f.manager, testScheduleID)
	if err != nil {
		t.Fatalf("ScheduleICS: %v", err)
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, e := range cal.Events() {
		if e.Id() != "s-alice-mon" {
			continue
		}
		start, err := e.GetStartAt()
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		end, err := e.GetEndAt()
		if err != nil {
			t.Fatalf("end: %v", err)
		}
		if start.UTC().Hour() != 9 || end.UTC().Hour() != 15 || start.Day() != 2 {
			t.Errorf("unexpected event window %s to %s", start, end)
		}
		return
	}
	t.Fatal("s-alice-mon not exported")
}
