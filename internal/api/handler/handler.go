package handler

import "github.com/malamapl09/Picker-Scheduler/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth         *AuthHandler
	Store        *StoreHandler
	Employee     *EmployeeHandler
	Schedule     *ScheduleHandler
	Compliance   *ComplianceHandler
	Optimizer    *OptimizerHandler
	Callout      *CalloutHandler
	Swap         *SwapHandler
	TimeOff      *TimeOffHandler
	Availability *AvailabilityHandler
	Demand       *DemandHandler
	Notification *NotificationHandler
	Export       *ExportHandler
	Report       *ReportHandler
}

// NewHandler creates the Handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Store:        NewStoreHandler(svc.Store),
		Employee:     NewEmployeeHandler(svc.Employee),
		Schedule:     NewScheduleHandler(svc.Schedule),
		Compliance:   NewComplianceHandler(svc.Compliance),
		Optimizer:    NewOptimizerHandler(svc.Optimizer),
		Callout:      NewCalloutHandler(svc.Callout),
		Swap:         NewSwapHandler(svc.Swap),
		TimeOff:      NewTimeOffHandler(svc.TimeOff),
		Availability: NewAvailabilityHandler(svc.Availability),
		Demand:       NewDemandHandler(svc.Demand),
		Notification: NewNotificationHandler(svc.Notification),
		Export:       NewExportHandler(svc.Export),
		Report:       NewReportHandler(svc.Report),
	}
}
