package model

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Branch   string `json:"branch,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type CreateItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Condition   string   `json:"condition"`
	Location    string   `json:"location"`
	Negotiable  *bool    `json:"negotiable"`
	Categories  []string `json:"categories"`
}

type UpdateItemRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Condition   *string  `json:"condition"`
	Location    *string  `json:"location"`
	Negotiable  *bool    `json:"negotiable"`
	Categories  []string `json:"categories"`
}

type UpdateItemStatusRequest struct {
	Status string `json:"status"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CartAddRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type WishlistAddRequest struct {
	ItemID string `json:"item_id"`
}

type CreateReviewRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type ModerateReviewRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type AdminUpdateUserRequest struct {
	Role       *string `json:"role"`
	IsActive   *bool   `json:"is_active"`
	IsVerified *bool   `json:"is_verified"`
}
