package service

import (
	"context"
	"net/http"

	"campus-market/internal/model"
	"campus-market/internal/repository"
	"campus-market/pkg/apierror"
)

const maxCartQuantity = 10

type CartService struct {
	cart  *repository.CartRepository
	items *repository.ItemRepository
}

func NewCartService(cart *repository.CartRepository, items *repository.ItemRepository) *CartService {
	return &CartService{cart: cart, items: items}
}

func (s *CartService) Add(ctx context.Context, user model.AuthUser, req model.CartAddRequest) error {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > maxCartQuantity {
		return apierror.New("VALIDATION_ERROR", "invalid cart quantity", "quantity", http.StatusBadRequest)
	}

	item, err := s.items.FindByID(ctx, req.ItemID)
	if err != nil {
		return err
	}
	if item.SellerID == user.ID {
		return apierror.New("CONFLICT", "cannot add your own item to the cart", "", http.StatusConflict)
	}

	return s.cart.Upsert(ctx, user.ID, req.ItemID, req.Quantity)
}

func (s *CartService) UpdateQuantity(ctx context.Context, user model.AuthUser, itemID string, quantity int) error {
	if quantity < 1 || quantity > maxCartQuantity {
		return apierror.New("VALIDATION_ERROR", "invalid cart quantity", "quantity", http.StatusBadRequest)
	}
	return s.cart.UpdateQuantity(ctx, user.ID, itemID, quantity)
}

func (s *CartService) Remove(ctx context.Context, user model.AuthUser, itemID string) error {
	return s.cart.Remove(ctx, user.ID, itemID)
}

func (s *CartService) Get(ctx context.Context, user model.AuthUser) (model.Cart, error) {
	entries, err := s.cart.ListForUser(ctx, user.ID)
	if err != nil {
		return model.Cart{}, err
	}

	cart := model.Cart{Entries: entries}
	for _, e := range entries {
		cart.Total += e.Item.Price * float64(e.Quantity)
	}
	return cart, nil
}
