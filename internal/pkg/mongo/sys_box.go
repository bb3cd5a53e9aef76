package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sysBoxCollection = "sys_box"

// SysBoxModel 系统通知模型
type SysBoxModel struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiverID uint64             `bson:"receiver_id" json:"receiverId"` // 消息接收者ID
	SenderID   uint64             `bson:"sender_id" json:"senderId"`     // 评论作者ID (匿名为0)
	Type       int8               `bson:"type" json:"type"`              // 1-帖子被评论, 2-评论被回复
	TargetID   uint64             `bson:"target_id" json:"targetId"`     // 帖子ID
	CommentID  uint64             `bson:"comment_id" json:"commentId"`   // 触发通知的评论ID
	Content    string             `bson:"content" json:"content"`        // 评论片段
	Payload    map[string]any     `bson:"payload" json:"payload"`
	IsRead     bool               `bson:"is_read" json:"isRead"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
