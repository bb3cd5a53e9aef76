package dto

// SysBoxDTO 系统通知返回对象
type SysBoxDTO struct {
	ID         string         `json:"id"`
	SenderID   uint64         `json:"sender_id"`
	SenderName string         `json:"sender_name"`
	AvatarURL  string         `json:"avatar_url"`
	Type       int8           `json:"type"`      // 1-评论帖子, 2-回复评论
	TargetID   uint64         `json:"target_id"` // 关联的帖子ID
	Content    string         `json:"content"`   // 预览内容
	Payload    map[string]any `json:"payload"`   // comment_id / parent_id
	IsRead     bool           `json:"is_read"`
	CreatedAt  string         `json:"created_at"`
}

// SysBoxUnreadDTO 未读数返回
type SysBoxUnreadDTO struct {
	UnreadCount int64 `json:"unread_count"`
}

// SysBoxReadDTO 标记已读请求
type SysBoxReadDTO struct {
	MsgID string `json:"msgId" binding:"required"`
}
