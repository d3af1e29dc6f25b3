package model

// Store a retail location whose pickers are scheduled together.
type Store struct {
	StoreID        string `gorm:"type:uuid;primaryKey"                    json:"store_id"`
	Name           string `gorm:"type:varchar(255);not null"              json:"name"`
	Code           string `gorm:"type:varchar(50);not null;uniqueIndex"   json:"code"`
	Address        string `gorm:"type:varchar(500)"                       json:"address,omitempty"`
	OperatingStart string `gorm:"type:varchar(8);not null;default:'08:00'" json:"operating_start"`
	OperatingEnd   string `gorm:"type:varchar(8);not null;default:'22:00'" json:"operating_end"`
	Timezone       string `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	SoftDeleteModel
}

// TableName maps to stores.
func (Store) TableName() string { return "stores" }
