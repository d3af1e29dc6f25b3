package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Export errors ──

var (
	ErrExportGenerateFail = errors.New("failed to generate export file")
)

// ExportService renders a week schedule for download.
//
// Employees may export published schedules of their store; managers may
// export any status. Files are returned as bytes and the handler sets the
// response headers.
type ExportService interface {
	// ScheduleXLSX one row per employee, one column per day and a totals column.
	ScheduleXLSX(ctx context.Context, caller jwt.Identity, scheduleID string) (*bytes.Buffer, string, error)
	// ScheduleICS the week's active shifts as timed events.
	ScheduleICS(ctx context.Context, caller jwt.Identity, scheduleID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ScheduleXLSX
// ═══════════════════════════════════════════════════════════
//
// Layout:
//   - row 1: store name and week range (merged)
//   - row 2: Employee | Mon dd/mm ... Sun dd/mm | Total hours
//   - one row per employee, cells "HH:MM-HH:MM" per shift
//   - last row: hours per day and the week total

const exportSheet = "Schedule"

func (s *exportService) ScheduleXLSX(ctx context.Context, caller jwt.Identity, scheduleID string) (*bytes.Buffer, string, error) {
	schedule, shifts, err := s.load(ctx, caller, scheduleID)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.exportRows(ctx, schedule, shifts)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(exportSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	lastCol := colName(1 + model.DaysInWeek)
	f.SetColWidth(exportSheet, "A", "A", 24)
	f.SetColWidth(exportSheet, "B", colName(model.DaysInWeek), 16)
	f.SetColWidth(exportSheet, lastCol, lastCol, 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	title := fmt.Sprintf("%s: %s to %s (%s)", storeName(schedule), schedule.WeekStartDate.Format(model.DateLayout),
		schedule.WeekEnd().Format(model.DateLayout), schedule.Status)
	f.SetCellValue(exportSheet, "A1", title)
	f.MergeCell(exportSheet, "A1", cell(lastCol, 1))
	f.SetCellStyle(exportSheet, "A1", "A1", headerStyle)

	f.SetCellValue(exportSheet, "A2", "Employee")
	for d := 0; d < model.DaysInWeek; d++ {
		day := schedule.WeekStartDate.AddDate(0, 0, d)
		f.SetCellValue(exportSheet, cell(colName(1+d), 2), day.Format("Mon 02/01"))
	}
	f.SetCellValue(exportSheet, cell(lastCol, 2), "Total hours")
	f.SetCellStyle(exportSheet, "A2", cell(lastCol, 2), headerStyle)

	var dayTotals [model.DaysInWeek]float64
	weekTotal := 0.0
	row := 3
	for _, r := range rows {
		f.SetCellValue(exportSheet, cell("A", row), r.name)
		for d := 0; d < model.DaysInWeek; d++ {
			text := "-"
			if len(r.cells[d]) > 0 {
				text = strings.Join(r.cells[d], "\n")
			}
			f.SetCellValue(exportSheet, cell(colName(1+d), row), text)
			dayTotals[d] += r.hours[d]
		}
		f.SetCellValue(exportSheet, cell(lastCol, row), compliance.RoundHours(r.total))
		weekTotal += r.total
		row++
	}
	if row > 3 {
		f.SetCellStyle(exportSheet, "B3", cell(colName(model.DaysInWeek), row-1), wrapStyle)
	}

	f.SetCellValue(exportSheet, cell("A", row), "Total")
	for d := 0; d < model.DaysInWeek; d++ {
		f.SetCellValue(exportSheet, cell(colName(1+d), row), compliance.RoundHours(dayTotals[d]))
	}
	f.SetCellValue(exportSheet, cell(lastCol, row), compliance.RoundHours(weekTotal))
	f.SetCellStyle(exportSheet, cell("A", row), cell(lastCol, row), headerStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportFilename(schedule, "xlsx"), nil
}

// ═══════════════════════════════════════════════════════════
// ScheduleICS
// ═══════════════════════════════════════════════════════════

func (s *exportService) ScheduleICS(ctx context.Context, caller jwt.Identity, scheduleID string) ([]byte, string, error) {
	schedule, shifts, err := s.load(ctx, caller, scheduleID)
	if err != nil {
		return nil, "", err
	}

	loc := time.UTC
	location := ""
	if schedule.Store != nil {
		loc = storeLocation(schedule.Store.Timezone)
		location = schedule.Store.Name
	}

	cal := newCalendar(fmt.Sprintf("%s %s", storeName(schedule), schedule.WeekStartDate.Format(model.DateLayout)))
	stamp := s.now().UTC()
	for i := range shifts {
		sh := &shifts[i]
		if !sh.Status.Active() {
			continue
		}
		// employees get their own shifts only
		if !caller.IsManager() && sh.EmployeeID != caller.EmployeeID {
			continue
		}
		summary := "Shift"
		if sh.Employee != nil {
			summary = "Shift: " + sh.Employee.FullName()
		}
		addShiftEvent(cal, sh, summary, location, loc, stamp)
	}
	return []byte(cal.Serialize()), exportFilename(schedule, "ics"), nil
}

// ── Internal ──

type exportRow struct {
	id    string
	name  string
	cells [model.DaysInWeek][]string
	hours [model.DaysInWeek]float64
	total float64
}

func (s *exportService) load(ctx context.Context, caller jwt.Identity, scheduleID string) (*model.Schedule, []model.Shift, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrScheduleNotFound
		}
		s.logger.Error("load schedule failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, nil, err
	}
	if err := authorizeStore(caller, schedule.StoreID); err != nil {
		return nil, nil, err
	}
	if !caller.IsManager() && schedule.Status != model.SchedulePublished {
		return nil, nil, ErrScheduleNotFound
	}

	shifts, err := s.repo.Shift.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("list shifts failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, nil, err
	}
	return schedule, shifts, nil
}

// exportRows the store's active employees plus anyone holding a shift,
// ordered by name.
func (s *exportService) exportRows(ctx context.Context, schedule *model.Schedule, shifts []model.Shift) ([]*exportRow, error) {
	emps, err := s.repo.Employee.ListByStore(ctx, schedule.StoreID, true)
	if err != nil {
		s.logger.Error("list employees failed", zap.String("store_id", schedule.StoreID), zap.Error(err))
		return nil, err
	}

	byID := make(map[string]*exportRow, len(emps))
	for i := range emps {
		byID[emps[i].EmployeeID] = &exportRow{id: emps[i].EmployeeID, name: emps[i].FullName()}
	}
	for i := range shifts {
		sh := &shifts[i]
		r, ok := byID[sh.EmployeeID]
		if !ok {
			name := sh.EmployeeID
			if sh.Employee != nil {
				name = sh.Employee.FullName()
			}
			r = &exportRow{id: sh.EmployeeID, name: name}
			byID[sh.EmployeeID] = r
		}

		d := model.DayIndex(sh.Date)
		text := trimClock(sh.StartTime) + "-" + trimClock(sh.EndTime)
		if !sh.Status.Active() {
			r.cells[d] = append(r.cells[d], text+" ("+strings.ReplaceAll(string(sh.Status), "_", " ")+")")
			continue
		}
		r.cells[d] = append(r.cells[d], text)
		r.hours[d] += sh.TotalHours()
		r.total += sh.TotalHours()
	}

	out := make([]*exportRow, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].id < out[j].id
	})
	return out, nil
}

func storeName(schedule *model.Schedule) string {
	if schedule.Store != nil {
		return schedule.Store.Name
	}
	return schedule.StoreID
}

func exportFilename(schedule *model.Schedule, ext string) string {
	code := schedule.StoreID
	if schedule.Store != nil && schedule.Store.Code != "" {
		code = schedule.Store.Code
	}
	return fmt.Sprintf("schedule_%s_%s.%s", code, schedule.WeekStartDate.Format(model.DateLayout), ext)
}

// ── Helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
