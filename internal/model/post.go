package model

import (
	"time"
)

type Post struct {
	ID            uint64    `gorm:"primaryKey"`
	BoardID       uint64    `gorm:"not null;default:0;index:idx_posts_board" json:"board_id"`
	UserID        uint64    `gorm:"not null;index:idx_posts_user" json:"user_id"`
	Title         string    `gorm:"type:varchar(255)" json:"title"`
	Content       string    `gorm:"not null" json:"content"`
	CommentsCount int       `gorm:"not null;default:0" json:"comments_count"`
	Status        int8      `gorm:"not null;default:0" json:"status"` // 0:审核中, 1:已发布, 2:拒绝
	IsDeleted     bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}
