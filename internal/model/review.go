package model

import "time"

const (
	ReviewTargetUser = "user"
	ReviewTargetItem = "item"

	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

func ValidReviewTarget(targetType string) bool {
	return targetType == ReviewTargetUser || targetType == ReviewTargetItem
}

func ValidReviewStatus(status string) bool {
	return status == ReviewStatusPending || status == ReviewStatusApproved || status == ReviewStatusRejected
}

type Review struct {
	ID         string    `json:"id"`
	ReviewerID string    `json:"reviewer_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
