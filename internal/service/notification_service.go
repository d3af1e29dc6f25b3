package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Notification errors ──

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoEmployeeProfile    = errors.New("user has no employee profile")
)

// Event one domain event addressed to employees.
type Event struct {
	Type        model.NotificationType
	EmployeeIDs []string
	Title       string
	Message     string
	Payload     map[string]interface{}
	RelatedType string
	RelatedID   string
}

// Notifier records events for employees.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotificationService notifier plus the employee inbox.
type NotificationService interface {
	Notifier
	ListMine(ctx context.Context, caller jwt.Identity, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, caller jwt.Identity, id string) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

// Notify persists one row per distinct recipient.
func (s *notificationService) Notify(ctx context.Context, ev Event) error {
	recipients := uniqueStrings(ev.EmployeeIDs)
	if len(recipients) == 0 {
		return nil
	}

	emps, err := s.repo.Employee.ListByIDs(ctx, recipients)
	if err != nil {
		return err
	}
	userOf := make(map[string]*string, len(emps))
	for _, e := range emps {
		userOf[e.EmployeeID] = e.UserID
	}

	var payload datatypes.JSON
	if len(ev.Payload) > 0 {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(raw)
	}

	var relatedType, relatedID *string
	if ev.RelatedType != "" {
		relatedType = strPtr(ev.RelatedType)
	}
	if ev.RelatedID != "" {
		relatedID = strPtr(ev.RelatedID)
	}

	items := make([]model.Notification, 0, len(recipients))
	for _, id := range recipients {
		items = append(items, model.Notification{
			EmployeeID:  id,
			UserID:      userOf[id],
			Type:        ev.Type,
			Title:       ev.Title,
			Message:     ev.Message,
			Payload:     payload,
			RelatedType: relatedType,
			RelatedID:   relatedID,
		})
	}
	return s.repo.Notification.BatchCreate(ctx, items)
}

func (s *notificationService) ListMine(ctx context.Context, caller jwt.Identity, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	if caller.EmployeeID == "" {
		return nil, 0, ErrNoEmployeeProfile
	}
	items, total, err := s.repo.Notification.ListByEmployee(ctx, caller.EmployeeID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list notifications failed", zap.Error(err))
		return nil, 0, err
	}

	out := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		resp := dto.NotificationResponse{
			ID:        n.NotificationID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			RelatedID: n.RelatedID,
			CreatedAt: formatTimestamp(n.CreatedAt),
		}
		if n.RelatedType != nil {
			resp.RelatedType = *n.RelatedType
		}
		if len(n.Payload) > 0 {
			resp.Payload = json.RawMessage(n.Payload)
		}
		out = append(out, resp)
	}
	return out, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller jwt.Identity, id string) error {
	if caller.EmployeeID == "" {
		return ErrNoEmployeeProfile
	}
	if err := s.repo.Notification.MarkRead(ctx, id, caller.EmployeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("mark notification read failed", zap.Error(err))
		return err
	}
	return nil
}

// notify sends ev and logs a failure; a lost notification never fails the
// operation that raised it.
func notify(ctx context.Context, n Notifier, logger *zap.Logger, ev Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, ev); err != nil {
		logger.Warn("notification not recorded",
			zap.String("type", string(ev.Type)),
			zap.Strings("employees", ev.EmployeeIDs),
			zap.Error(err))
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
