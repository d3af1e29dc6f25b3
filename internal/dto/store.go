package dto

// ── Stores ──

// CreateStoreRequest registers a store.
type CreateStoreRequest struct {
	Name           string `json:"name"            binding:"required,max=255"`
	Code           string `json:"code"            binding:"required,max=50"`
	Address        string `json:"address"         binding:"max=500"`
	OperatingStart string `json:"operating_start" binding:"omitempty,hhmm"`
	OperatingEnd   string `json:"operating_end"   binding:"omitempty,hhmm"`
	Timezone       string `json:"timezone"        binding:"omitempty,timezone"`
}

// UpdateStoreRequest partial update. The code is immutable.
type UpdateStoreRequest struct {
	Name           *string `json:"name"            binding:"omitempty,max=255"`
	Address        *string `json:"address"         binding:"omitempty,max=500"`
	OperatingStart *string `json:"operating_start" binding:"omitempty,hhmm"`
	OperatingEnd   *string `json:"operating_end"   binding:"omitempty,hhmm"`
	Timezone       *string `json:"timezone"        binding:"omitempty,timezone"`
}

// StoreResponse one store.
type StoreResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	Address        string `json:"address,omitempty"`
	OperatingStart string `json:"operating_start"`
	OperatingEnd   string `json:"operating_end"`
	Timezone       string `json:"timezone"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}
