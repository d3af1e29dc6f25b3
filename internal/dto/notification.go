package dto

// ── Notifications ──

// NotificationListRequest list query.
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	PaginationRequest
}

// NotificationResponse one notification.
type NotificationResponse struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Payload     interface{} `json:"payload,omitempty"`
	IsRead      bool        `json:"is_read"`
	RelatedType string      `json:"related_type,omitempty"`
	RelatedID   *string     `json:"related_id,omitempty"`
	CreatedAt   string      `json:"created_at"`
}
