package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/mongo"
	"Agora/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

const previewRunes = 50

type SysBoxService interface {
	NotifyCommentCreated(ctx context.Context, comment *model.PostComment) error
	RevokeCommentNotifications(ctx context.Context, commentID uint64) error
	GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error)
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error)
	MarkRead(ctx context.Context, userID uint64, msgID string) error
	MarkAllRead(ctx context.Context, userID uint64) error
}

type sysBoxServiceImpl struct {
	sysBoxRepo  mongo.SysBoxRepo
	userRepo    repository.UserRepo
	postRepo    repository.PostRepo
	commentRepo repository.CommentRepo
}

func NewSysBoxService(sysBox mongo.SysBoxRepo, user repository.UserRepo, post repository.PostRepo, comment repository.CommentRepo) SysBoxService {
	return &sysBoxServiceImpl{
		sysBoxRepo:  sysBox,
		userRepo:    user,
		postRepo:    post,
		commentRepo: comment,
	}
}

// NotifyCommentCreated 回复通知父评论作者，根评论通知楼主；不通知自己
func (s *sysBoxServiceImpl) NotifyCommentCreated(ctx context.Context, comment *model.PostComment) error {
	if comment == nil {
		return nil
	}
	var senderID uint64
	if comment.UserID != nil {
		senderID = *comment.UserID
	}

	msg := &mongo.SysBoxModel{
		SenderID:  senderID,
		TargetID:  comment.PostID,
		CommentID: comment.ID,
		Content:   preview(comment),
		Payload:   map[string]any{"comment_id": comment.ID, "path": comment.Path},
		CreatedAt: time.Now(),
	}

	if comment.ParentID != nil {
		parent, err := s.commentRepo.GetCommentByID(ctx, *comment.ParentID)
		if err != nil {
			return err
		}
		if parent == nil || parent.UserID == nil || *parent.UserID == senderID {
			return nil
		}
		msg.ReceiverID = *parent.UserID
		msg.Type = consts.SysBoxTypeReply
		msg.Payload["parent_id"] = parent.ID
		return s.sysBoxRepo.CreateNotification(ctx, msg)
	}

	post, err := s.postRepo.GetPost(ctx, comment.PostID)
	if err != nil {
		return err
	}
	if post == nil || post.UserID == senderID {
		return nil
	}
	msg.ReceiverID = post.UserID
	msg.Type = consts.SysBoxTypeComment
	return s.sysBoxRepo.CreateNotification(ctx, msg)
}

func (s *sysBoxServiceImpl) RevokeCommentNotifications(ctx context.Context, commentID uint64) error {
	_, err := s.sysBoxRepo.DeleteByCommentID(ctx, commentID)
	return err
}

// GetNotificationList 获取通知列表并补全用户信息
func (s *sysBoxServiceImpl) GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 10
	}
	limit := int64(pageSize)
	offset := int64((page - 1) * pageSize)

	list, err := s.sysBoxRepo.GetNotificationList(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SysBoxDTO, 0, len(list))
	for _, m := range list {
		d := &dto.SysBoxDTO{}
		_ = copier.Copy(d, m)
		d.ID = m.ID.Hex()
		d.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)

		// SenderID 为 0 代表匿名
		if m.SenderID != consts.AnonymousSenderID {
			user, err := s.userRepo.GetUserHomeInfoById(ctx, m.SenderID)
			if err == nil && user != nil {
				d.SenderName = user.Nickname
				d.AvatarURL = user.AvatarURL
			}
		} else {
			d.SenderName = "匿名用户"
			d.AvatarURL = consts.DefaultAvatarURL
		}

		res = append(res, d)
	}

	return res, nil
}

func (s *sysBoxServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error) {
	count, err := s.sysBoxRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SysBoxUnreadDTO{UnreadCount: count}, nil
}

// MarkRead 标记单条已读
func (s *sysBoxServiceImpl) MarkRead(ctx context.Context, userID uint64, msgID string) error {
	objectID, err := primitive.ObjectIDFromHex(msgID)
	if err != nil {
		return ErrParamInvalid
	}

	notice, err := s.sysBoxRepo.GetByID(ctx, objectID)
	if err != nil {
		if errors.Is(err, mongoDB.ErrNoDocuments) {
			return ErrSysBoxNotFound
		}
		return err
	}

	if notice.ReceiverID != userID {
		return UnauthorizedError
	}

	if notice.IsRead {
		return nil
	}

	return s.sysBoxRepo.MarkAsRead(ctx, userID, msgID)
}

func (s *sysBoxServiceImpl) MarkAllRead(ctx context.Context, userID uint64) error {
	return s.sysBoxRepo.MarkAllAsRead(ctx, userID)
}

// preview 私密评论不外显正文
func preview(c *model.PostComment) string {
	if c.IsSecret {
		return ""
	}
	r := []rune(c.Content)
	if len(r) > previewRunes {
		return string(r[:previewRunes]) + "..."
	}
	return c.Content
}
