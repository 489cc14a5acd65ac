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

const (
	maxItemPrice    = 1_000_000
	maxItemPageSize = 100
)

type ItemService struct {
	items      *repository.ItemRepository
	categories *repository.CategoryRepository
}

func NewItemService(items *repository.ItemRepository, categories *repository.CategoryRepository) *ItemService {
	return &ItemService{items: items, categories: categories}
}

func (s *ItemService) Create(ctx context.Context, seller model.AuthUser, req model.CreateItemRequest) (model.Item, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)

	if fields := validateItemInput(req); len(fields) > 0 {
		return model.Item{}, apierror.New("VALIDATION_ERROR", "invalid item input",
			strings.Join(fields, ", "), http.StatusBadRequest)
	}

	for _, categoryID := range req.Categories {
		if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
			return model.Item{}, err
		}
	}

	negotiable := true
	if req.Negotiable != nil {
		negotiable = *req.Negotiable
	}

	now := time.Now().UTC()
	item := model.Item{
		ID:          uuid.NewString(),
		SellerID:    seller.ID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Condition:   req.Condition,
		Status:      model.ItemStatusAvailable,
		Location:    req.Location,
		Negotiable:  negotiable,
		Categories:  req.Categories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (model.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return model.Item{}, err
	}

	if err := s.items.IncrementViews(ctx, id); err == nil {
		item.Views++
	}
	return item, nil
}

func (s *ItemService) List(ctx context.Context, f model.ItemFilters) ([]model.Item, *model.Meta, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > maxItemPageSize {
		f.Limit = maxItemPageSize
	}

	items, total, err := s.items.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	meta := &model.Meta{
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}
	return items, meta, nil
}

func (s *ItemService) Update(ctx context.Context, actor model.AuthUser, id string, req model.UpdateItemRequest) (model.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	if item.SellerID != actor.ID && actor.Role != model.RoleAdmin {
		return model.Item{}, model.ErrForbidden
	}

	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Condition != nil {
		item.Condition = *req.Condition
	}
	if req.Location != nil {
		item.Location = strings.TrimSpace(*req.Location)
	}
	if req.Negotiable != nil {
		item.Negotiable = *req.Negotiable
	}
	if req.Categories != nil {
		for _, categoryID := range req.Categories {
			if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
				return model.Item{}, err
			}
		}
		item.Categories = req.Categories
	}

	if fields := validateItemInput(model.CreateItemRequest{
		Title:      item.Title,
		Price:      item.Price,
		Condition:  item.Condition,
		Location:   item.Location,
		Categories: item.Categories,
	}); len(fields) > 0 {
		return model.Item{}, apierror.New("VALIDATION_ERROR", "invalid item input",
			strings.Join(fields, ", "), http.StatusBadRequest)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.items.Update(ctx, item); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

func (s *ItemService) UpdateStatus(ctx context.Context, actor model.AuthUser, id string, status string) error {
	if !model.ValidItemStatus(status) {
		return apierror.New("VALIDATION_ERROR", "invalid item status", status, http.StatusBadRequest)
	}

	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item.SellerID != actor.ID {
		return model.ErrForbidden
	}
	return s.items.UpdateStatus(ctx, id, status)
}

func (s *ItemService) Delete(ctx context.Context, actor model.AuthUser, id string) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item.SellerID != actor.ID && actor.Role != model.RoleAdmin {
		return model.ErrForbidden
	}
	return s.items.Delete(ctx, id)
}

func validateItemInput(req model.CreateItemRequest) []string {
	var fields []string
	if len(req.Title) < 3 || len(req.Title) > 200 {
		fields = append(fields, "title")
	}
	if req.Price < 0 || req.Price > maxItemPrice {
		fields = append(fields, "price")
	}
	if !model.ValidItemCondition(req.Condition) {
		fields = append(fields, "condition")
	}
	if len(req.Location) < 3 || len(req.Location) > 100 {
		fields = append(fields, "location")
	}
	if len(req.Categories) < 1 || len(req.Categories) > 5 {
		fields = append(fields, "categories")
	}
	return fields
}
