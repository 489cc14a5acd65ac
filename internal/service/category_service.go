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

type CategoryService struct {
	categories *repository.CategoryRepository
}

func NewCategoryService(categories *repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, req model.CreateCategoryRequest) (model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 || len(name) > 50 {
		return model.Category{}, apierror.New("VALIDATION_ERROR", "invalid category input", "name", http.StatusBadRequest)
	}

	category := model.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) Stats(ctx context.Context) ([]model.CategoryStat, error) {
	return s.categories.Stats(ctx)
}
