package kafka

import (
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/redis"
	"Agora/internal/service"
	"context"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

const commentTable = "post_comments"

// CommentsHandler 消费 post_comments 的 binlog：新评论发通知，删除时撤回通知并标记帖子待校对
type CommentsHandler struct {
	sysBoxSvc service.SysBoxService
}

func NewCommentsHandler(sysBoxSvc service.SysBoxService) *CommentsHandler {
	return &CommentsHandler{
		sysBoxSvc: sysBoxSvc,
	}
}

func (s *CommentsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("comment consumer setup")
	return nil
}

func (s *CommentsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("comment consumer cleanup")
	return nil
}

func (s *CommentsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("topic-comment process batch error", "err", err)
		return err
	}
	return nil
}

func (s *CommentsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, commentTable)
	if err != nil {
		return err
	}

	for i, row := range canalMsg.Data {
		comment := parseComment(row)
		if comment.ID == 0 {
			continue
		}
		switch canalMsg.Type {
		case INSERT:
			if err := s.sysBoxSvc.NotifyCommentCreated(ctx, comment); err != nil {
				return errors.Wrapf(err, "notify comment %d", comment.ID)
			}
		case UPDATE:
			if !becameTombstone(canalMsg, i, comment) {
				continue
			}
			if err := s.sysBoxSvc.RevokeCommentNotifications(ctx, comment.ID); err != nil {
				return errors.Wrapf(err, "revoke notifications of comment %d", comment.ID)
			}
		case DELETE:
			if err := s.sysBoxSvc.RevokeCommentNotifications(ctx, comment.ID); err != nil {
				return errors.Wrapf(err, "revoke notifications of comment %d", comment.ID)
			}
			if err := s.markPostDirty(ctx, comment.PostID); err != nil {
				return errors.Wrapf(err, "mark post %d dirty", comment.PostID)
			}
		}
	}
	return nil
}

// markPostDirty 物理删除后由定时任务复核计数，并让评论数缓存失效
func (s *CommentsHandler) markPostDirty(ctx context.Context, postID uint64) error {
	if postID == 0 {
		return nil
	}
	id := strconv.FormatUint(postID, 10)
	if err := redis.SAdd(ctx, consts.PostCommentDirtyKey, id); err != nil {
		return err
	}
	return redis.DeleteKey(ctx, consts.PostCommentKey+id)
}

func becameTombstone(msg *CanalMessage, i int, comment *model.PostComment) bool {
	if comment.Status != model.CommentStatusTombstoned || i >= len(msg.Old) {
		return false
	}
	old, ok := msg.Old[i]["status"]
	return ok && int8(StrToInt(old)) != model.CommentStatusTombstoned
}

func parseComment(row map[string]interface{}) *model.PostComment {
	return &model.PostComment{
		ID:         StrToUint64(row["id"]),
		BoardID:    StrToUint64(row["board_id"]),
		PostID:     StrToUint64(row["post_id"]),
		UserID:     StrToUint64Ptr(row["user_id"]),
		ParentID:   StrToUint64Ptr(row["parent_id"]),
		Depth:      StrToInt(row["depth"]),
		Path:       StrToString(row["path"]),
		Content:    StrToString(row["content"]),
		Format:     StrToString(row["format"]),
		IsSecret:   StrToBool(row["is_secret"]),
		ReplyCount: StrToInt(row["reply_count"]),
		Status:     int8(StrToInt(row["status"])),
	}
}
