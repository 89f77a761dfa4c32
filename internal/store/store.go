package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assist-board-backend/internal/model"
)

// CreateAssistanceRequestInput carries the caller-supplied fields for a new
// request. RoomName and RoomLocation are trusted verbatim and stored as a
// point-in-time snapshot of the room.
type CreateAssistanceRequestInput struct {
	RoomID       int64
	RoomName     string
	RoomLocation string
}

// ActivityInput carries the fields for a new activity log row. RoomID is
// resolved by room-name lookup when nil.
type ActivityInput struct {
	Type       string
	RoomName   string
	Message    string
	Technician *string
	RoomID     *int64
}

// Store defines the interface for all database operations.
type Store interface {
	GetRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	CreateRoom(ctx context.Context, room *model.Room) error

	GetAssistanceRequests(ctx context.Context, status string) ([]model.AssistanceRequest, error)
	GetActiveAssistanceRequests(ctx context.Context) ([]model.AssistanceRequest, error)
	GetResolvedAssistanceRequests(ctx context.Context) ([]model.AssistanceRequest, error)
	GetAssistanceRequest(ctx context.Context, id int64) (*model.AssistanceRequest, error)
	CreateAssistanceRequest(ctx context.Context, in CreateAssistanceRequestInput) (*model.AssistanceRequest, error)
	UpdateAssistanceRequestStatus(ctx context.Context, id int64, status model.RequestStatus, updatedBy string) (*model.AssistanceRequest, error)

	GetActivities(ctx context.Context) ([]model.Activity, error)
	CreateActivity(ctx context.Context, in ActivityInput) (*model.Activity, error)

	GetSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	PutSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// --- Rooms ---

func (s *gormStore) GetRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *gormStore) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch room %d: %w", id, err)
	}
	return &room, nil
}

func (s *gormStore) CreateRoom(ctx context.Context, room *model.Room) error {
	if room.Status == "" {
		room.Status = model.RoomStatusAvailable
	}
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// --- Assistance requests ---

func (s *gormStore) GetAssistanceRequests(ctx context.Context, status string) ([]model.AssistanceRequest, error) {
	q := s.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var requests []model.AssistanceRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list assistance requests: %w", err)
	}
	return requests, nil
}

func (s *gormStore) GetActiveAssistanceRequests(ctx context.Context) ([]model.AssistanceRequest, error) {
	var requests []model.AssistanceRequest
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.RequestStatus{model.StatusWaiting, model.StatusInProgress}).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active assistance requests: %w", err)
	}
	return requests, nil
}

func (s *gormStore) GetResolvedAssistanceRequests(ctx context.Context) ([]model.AssistanceRequest, error) {
	var requests []model.AssistanceRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", model.StatusResolved).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list resolved assistance requests: %w", err)
	}
	return requests, nil
}

func (s *gormStore) GetAssistanceRequest(ctx context.Context, id int64) (*model.AssistanceRequest, error) {
	var request model.AssistanceRequest
	if err := s.db.WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch assistance request %d: %w", id, err)
	}
	return &request, nil
}

// CreateAssistanceRequest inserts a new request in the waiting state and
// appends the matching "requested" activity row in the same transaction.
func (s *gormStore) CreateAssistanceRequest(ctx context.Context, in CreateAssistanceRequestInput) (*model.AssistanceRequest, error) {
	request := model.AssistanceRequest{
		RoomID:       in.RoomID,
		RoomName:     in.RoomName,
		RoomLocation: in.RoomLocation,
		Status:       model.StatusWaiting,
		RequestedAt:  time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to create assistance request: %w", err)
		}
		_, err := insertActivity(tx, ActivityInput{
			Type:     model.ActivityRequested,
			RoomName: in.RoomName,
			Message:  fmt.Sprintf("New request from %s", in.RoomName),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateAssistanceRequestStatus applies a transition to the target status and
// appends the matching activity row. The read and the write run in one
// transaction so racing technician updates cannot interleave between them.
// A transition into waiting writes the status only: no timestamp side effect
// and no activity row.
func (s *gormStore) UpdateAssistanceRequestStatus(ctx context.Context, id int64, status model.RequestStatus, updatedBy string) (*model.AssistanceRequest, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var request model.AssistanceRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch assistance request %d: %w", id, err)
		}

		now := time.Now().UTC()
		request.Status = status
		switch status {
		case model.StatusInProgress:
			request.RespondedAt = &now
		case model.StatusResolved:
			request.ResolvedAt = &now
			if updatedBy != "" {
				request.ResolvedBy = &updatedBy
			} else {
				request.ResolvedBy = nil
			}
		}

		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("failed to update assistance request %d: %w", id, err)
		}

		if status == model.StatusWaiting {
			return nil
		}
		_, err := insertActivity(tx, transitionActivity(&request, status, updatedBy))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// transitionActivity builds the activity row describing a transition into
// in-progress or resolved.
func transitionActivity(request *model.AssistanceRequest, status model.RequestStatus, updatedBy string) ActivityInput {
	var technician *string
	if updatedBy != "" {
		technician = &updatedBy
	}

	if status == model.StatusInProgress {
		who := updatedBy
		if who == "" {
			who = "A technician"
		}
		return ActivityInput{
			Type:       model.ActivityResponded,
			RoomName:   request.RoomName,
			Message:    fmt.Sprintf("%s responded to %s request", who, request.RoomName),
			Technician: technician,
		}
	}
	return ActivityInput{
		Type:       model.ActivityResolved,
		RoomName:   request.RoomName,
		Message:    fmt.Sprintf("Request from %s was resolved", request.RoomName),
		Technician: technician,
	}
}

// --- Activities ---

func (s *gormStore) GetActivities(ctx context.Context) ([]model.Activity, error) {
	var activities []model.Activity
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(50).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

func (s *gormStore) CreateActivity(ctx context.Context, in ActivityInput) (*model.Activity, error) {
	return insertActivity(s.db.WithContext(ctx), in)
}

// insertActivity appends one activity row, resolving RoomID by room name when
// it is not supplied. The name lookup is best effort; the first matching room
// wins.
func insertActivity(tx *gorm.DB, in ActivityInput) (*model.Activity, error) {
	roomID := in.RoomID
	if roomID == nil && in.RoomName != "" {
		var room model.Room
		err := tx.Where("name = ?", in.RoomName).First(&room).Error
		if err == nil {
			roomID = &room.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to resolve room for activity: %w", err)
		}
	}

	activity := model.Activity{
		Type:       in.Type,
		RoomName:   in.RoomName,
		Message:    in.Message,
		Timestamp:  time.Now().UTC(),
		Technician: in.Technician,
		RoomID:     roomID,
	}
	if err := tx.Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return &activity, nil
}

// --- Push subscriptions ---

func (s *gormStore) GetSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch push subscription: %w", err)
	}
	return &sub, nil
}

func (s *gormStore) PutSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	if err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}
