package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"campus-market/internal/config"
	"campus-market/internal/handler"
	"campus-market/internal/middleware"
	"campus-market/internal/model"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Item     *handler.ItemHandler
	Category *handler.CategoryHandler
	Cart     *handler.CartHandler
	Wishlist *handler.WishlistHandler
	Review   *handler.ReviewHandler
	User     *handler.UserHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.Route("/items", func(items chi.Router) {
			items.Get("/", h.Item.List)
			items.Get("/{id}", h.Item.Get)
			items.With(authMiddleware.RequireAuth).Post("/", h.Item.Create)
			items.With(authMiddleware.RequireAuth).Put("/{id}", h.Item.Update)
			items.With(authMiddleware.RequireAuth).Patch("/{id}/status", h.Item.UpdateStatus)
			items.With(authMiddleware.RequireAuth).Delete("/{id}", h.Item.Delete)
		})

		api.Route("/categories", func(categories chi.Router) {
			categories.Get("/", h.Category.List)
			categories.Get("/stats", h.Category.Stats)
			categories.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Post("/", h.Category.Create)
		})

		api.Route("/cart", func(cart chi.Router) {
			cart.Use(authMiddleware.RequireAuth)
			cart.Get("/", h.Cart.Get)
			cart.Post("/", h.Cart.Add)
			cart.Put("/{itemID}", h.Cart.UpdateQuantity)
			cart.Delete("/{itemID}", h.Cart.Remove)
		})

		api.Route("/wishlist", func(wishlist chi.Router) {
			wishlist.Use(authMiddleware.RequireAuth)
			wishlist.Get("/", h.Wishlist.List)
			wishlist.Post("/", h.Wishlist.Add)
			wishlist.Delete("/{itemID}", h.Wishlist.Remove)
		})

		api.Route("/reviews", func(reviews chi.Router) {
			reviews.Get("/", h.Review.ListForTarget)
			reviews.With(authMiddleware.RequireAuth).Post("/", h.Review.Create)
			reviews.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Patch("/{id}/moderate", h.Review.Moderate)
		})

		api.Route("/admin/users", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin))
			admin.Get("/", h.User.List)
			admin.Patch("/{id}", h.User.Update)
		})
	})

	return r
}
