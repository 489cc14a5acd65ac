package service

import (
	"context"

	"campus-market/internal/model"
	"campus-market/internal/repository"
)

type WishlistService struct {
	wishlist *repository.WishlistRepository
	items    *repository.ItemRepository
}

func NewWishlistService(wishlist *repository.WishlistRepository, items *repository.ItemRepository) *WishlistService {
	return &WishlistService{wishlist: wishlist, items: items}
}

func (s *WishlistService) Add(ctx context.Context, user model.AuthUser, itemID string) error {
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return err
	}
	return s.wishlist.Add(ctx, user.ID, itemID)
}

func (s *WishlistService) Remove(ctx context.Context, user model.AuthUser, itemID string) error {
	return s.wishlist.Remove(ctx, user.ID, itemID)
}

func (s *WishlistService) List(ctx context.Context, user model.AuthUser) ([]model.WishlistEntry, error) {
	return s.wishlist.ListForUser(ctx, user.ID)
}
