package dto

// ── Demand ──

// DemandEntry required picker-hours for one store hour.
type DemandEntry struct {
	Date          string  `json:"date"           binding:"required,datetime=2006-01-02"`
	Hour          int     `json:"hour"           binding:"min=0,max=23"`
	RequiredHours float64 `json:"required_hours" binding:"min=0"`
}

// UpsertDemandRequest a forecast drop.
type UpsertDemandRequest struct {
	StoreID string        `json:"store_id" binding:"required,uuid"`
	Entries []DemandEntry `json:"entries"  binding:"required,min=1,dive"`
}

// DemandQuery selects a store-week.
type DemandQuery struct {
	StoreID   string `form:"store_id"   binding:"required,uuid"`
	WeekStart string `form:"week_start" binding:"required,monday"`
}

// DemandDay one day of the grid.
type DemandDay struct {
	Date       string      `json:"date"`
	Hours      [24]float64 `json:"hours"`
	TotalHours float64     `json:"total_hours"`
}

// DemandGridResponse the 7×24 grid of a store-week.
type DemandGridResponse struct {
	StoreID    string      `json:"store_id"`
	WeekStart  string      `json:"week_start"`
	Days       []DemandDay `json:"days"`
	TotalHours float64     `json:"total_hours"`
}

// UpsertDemandResponse rows written.
type UpsertDemandResponse struct {
	Upserted int `json:"upserted"`
}
