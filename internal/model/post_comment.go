package model

import (
	"time"
)

const (
	CommentStatusActive     int8 = 1
	CommentStatusTombstoned int8 = 2
)

const (
	CommentFormatPlain    = "plain"
	CommentFormatMarkdown = "markdown"
)

// PostComment 评论，树结构由 ParentID / Depth / Path 描述
// Path 根评论为 "<id>"，回复为 "<父Path>/<id>"，赋值后不再修改
type PostComment struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	BoardID    uint64    `gorm:"not null;default:0;index:idx_comments_board" json:"boardId"`
	PostID     uint64    `gorm:"not null;index:idx_comments_post" json:"postId"`
	UserID     *uint64   `gorm:"index:idx_comments_user" json:"userId"` // nil 表示匿名
	ParentID   *uint64   `gorm:"index:idx_comments_parent" json:"parentId"`
	Depth      int       `gorm:"not null;default:0" json:"depth"`
	Path       string    `gorm:"type:varchar(255);not null;default:'';index:idx_comments_path" json:"path"`
	Content    string    `gorm:"type:varchar(1000);not null" json:"content"`
	Format     string    `gorm:"type:varchar(16);not null;default:'plain'" json:"format"`
	IsSecret   bool      `gorm:"type:tinyint(1);not null;default:0" json:"isSecret"`
	ReplyCount int       `gorm:"not null;default:0" json:"replyCount"`
	Status     int8      `gorm:"not null;default:1" json:"status"`
	IP         string    `gorm:"type:varchar(45);not null;default:''" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (PostComment) TableName() string {
	return "post_comments"
}

func (c *PostComment) IsRoot() bool {
	return c.ParentID == nil
}

func (c *PostComment) IsTombstoned() bool {
	return c.Status == CommentStatusTombstoned
}

// IsAuthor 匿名评论不属于任何人
func (c *PostComment) IsAuthor(userID uint64) bool {
	return c.UserID != nil && userID != 0 && *c.UserID == userID
}
