package models

import "time"

// Comment belongs to exactly one equipment record and is immutable after
// creation (delete only). Deleting the equipment record cascades here.
type Comment struct {
	ID          int64     `json:"id"`
	EquipmentID int64     `json:"equipment_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCommentRequest is the request body for adding a comment.
type CreateCommentRequest struct {
	EquipmentID int64  `json:"equipment_id"`
	CommentText string `json:"comment_text"`
}
