package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-market/internal/model"
	"campus-market/internal/repository"
	"campus-market/pkg/apierror"
)

type ReviewService struct {
	reviews *repository.ReviewRepository
	items   *repository.ItemRepository
}

func NewReviewService(reviews *repository.ReviewRepository, items *repository.ItemRepository) *ReviewService {
	return &ReviewService{reviews: reviews, items: items}
}

func (s *ReviewService) Create(ctx context.Context, reviewer model.AuthUser, req model.CreateReviewRequest) (model.Review, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)

	var fields []string
	if !model.ValidReviewTarget(req.TargetType) {
		fields = append(fields, "target_type")
	}
	if req.TargetID == "" {
		fields = append(fields, "target_id")
	}
	if req.Rating < 1 || req.Rating > 5 {
		fields = append(fields, "rating")
	}
	if len(req.Title) < 3 || len(req.Title) > 100 {
		fields = append(fields, "title")
	}
	if len(req.Content) < 10 || len(req.Content) > 1000 {
		fields = append(fields, "content")
	}
	if len(fields) > 0 {
		return model.Review{}, apierror.New("VALIDATION_ERROR", "invalid review input",
			strings.Join(fields, ", "), http.StatusBadRequest)
	}

	if req.TargetType == model.ReviewTargetItem {
		if _, err := s.items.FindByID(ctx, req.TargetID); err != nil {
			return model.Review{}, err
		}
	}
	if req.TargetType == model.ReviewTargetUser && req.TargetID == reviewer.ID {
		return model.Review{}, apierror.New("CONFLICT", "cannot review yourself", "", http.StatusConflict)
	}

	now := time.Now().UTC()
	review := model.Review{
		ID:         uuid.NewString(),
		ReviewerID: reviewer.ID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Rating:     req.Rating,
		Title:      req.Title,
		Content:    req.Content,
		Status:     model.ReviewStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return model.Review{}, err
	}
	return review, nil
}

func (s *ReviewService) Moderate(ctx context.Context, id string, status string) (model.Review, error) {
	if !model.ValidReviewStatus(status) {
		return model.Review{}, apierror.New("VALIDATION_ERROR", "invalid review status", status, http.StatusBadRequest)
	}

	if err := s.reviews.UpdateStatus(ctx, id, status); err != nil {
		return model.Review{}, err
	}
	return s.reviews.FindByID(ctx, id)
}

func (s *ReviewService) ListForTarget(ctx context.Context, targetType string, targetID string) ([]model.Review, error) {
	if !model.ValidReviewTarget(targetType) {
		return nil, apierror.New("VALIDATION_ERROR", "invalid review target", targetType, http.StatusBadRequest)
	}
	return s.reviews.ListForTarget(ctx, targetType, targetID)
}
