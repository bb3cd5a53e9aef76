package dto

// CommentCreateDTO 创建评论请求
type CommentCreateDTO struct {
	PostID   uint64 `json:"post_id" binding:"required" validate:"required"`
	Content  string `json:"content" binding:"required,max=1000" validate:"required,max=1000"`
	ParentID uint64 `json:"parent_id"` // 0 表示根评论
	Format   string `json:"format" validate:"omitempty,oneof=plain markdown"`
	IsSecret bool   `json:"is_secret"`
}

// CommentDTO 评论返回详情，列表按树的先序排列
type CommentDTO struct {
	ID         uint64 `json:"id"`
	PostID     uint64 `json:"post_id"`
	UserID     uint64 `json:"user_id"`
	Nickname   string `json:"nickname"`
	AvatarURL  string `json:"avatar_url"`
	ParentID   uint64 `json:"parent_id"`
	Depth      int    `json:"depth"`
	Path       string `json:"path"`
	Content    string `json:"content"`
	Format     string `json:"format"`
	IsSecret   bool   `json:"is_secret"`
	IsDeleted  bool   `json:"is_deleted"`
	ReplyCount int    `json:"reply_count"`
	CreatedAt  string `json:"created_at"`
}

// CommentCountDTO 评论数
type CommentCountDTO struct {
	PostID       uint64 `json:"post_id"`
	CommentCount int64  `json:"comment_count"`
}

// CommentTreeDTO 帖子评论树
type CommentTreeDTO struct {
	PostID       uint64        `json:"post_id"`
	CommentCount int64         `json:"comment_count"`
	Comments     []*CommentDTO `json:"comments"`
}
