package job

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/logger"
	"Agora/internal/pkg/redis"
	"Agora/internal/service"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const counterJobLockTTL = 4 * time.Minute

// CommentCounterJob 重算被标记为脏的帖子的评论计数
type CommentCounterJob struct {
	commentSvc service.CommentService
}

func NewCommentCounterJob(commentSvc service.CommentService) *CommentCounterJob {
	return &CommentCounterJob{
		commentSvc: commentSvc,
	}
}

func (s *CommentCounterJob) Run() {
	traceID := "job-comment-counter-" + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)
	s.RunOnce(ctx)
}

// RunOnce 多实例部署时通过分布式锁保证只有一个实例执行
func (s *CommentCounterJob) RunOnce(ctx context.Context) int {
	locked, err := redis.TryLock(ctx, consts.CommentCounterJobLock, logger.TraceID(ctx), counterJobLockTTL, 1)
	if err != nil {
		log.ErrorContext(ctx, "acquire comment counter job lock error", "err", err)
		return 0
	}
	if !locked {
		log.InfoContext(ctx, "comment counter job running elsewhere, skip")
		return 0
	}
	defer redis.UnLock(ctx, consts.CommentCounterJobLock, logger.TraceID(ctx))

	processingKey := consts.PostCommentDirtyKey + ":processing"
	// 上次执行中断时 processing 集合仍在，先处理它
	members, err := redis.GetSet(ctx, processingKey)
	if err != nil {
		log.ErrorContext(ctx, "get comment processing set error", "err", err)
		return 0
	}
	if len(members) == 0 {
		if err = redis.Rename(ctx, consts.PostCommentDirtyKey, processingKey); err != nil {
			// 脏集合不存在，无事可做
			return 0
		}
		members, err = redis.GetSet(ctx, processingKey)
		if err != nil {
			log.ErrorContext(ctx, "get comment dirty set error", "err", err)
			return 0
		}
	}

	log.InfoContext(ctx, "start reconciling comment counters", "count", len(members))

	successCount := 0
	var failed []interface{}
	for _, m := range members {
		postID, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			log.WarnContext(ctx, "invalid post id in dirty set", "member", m)
			continue
		}
		if err = s.commentSvc.ReconcilePostCounters(ctx, postID); err != nil {
			log.ErrorContext(ctx, "reconcile post counters error", "post_id", postID, "err", err)
			failed = append(failed, m)
			continue
		}
		successCount++
	}

	if err = redis.DeleteKey(ctx, processingKey); err != nil {
		log.ErrorContext(ctx, "delete comment processing set error", "err", err)
	}
	// 失败的帖子放回脏集合，下一轮重试
	if len(failed) > 0 {
		if err = redis.SAdd(ctx, consts.PostCommentDirtyKey, failed...); err != nil {
			log.ErrorContext(ctx, "requeue dirty posts error", "err", err)
		}
	}

	log.InfoContext(ctx, "reconcile comment counters finished",
		"total_count", len(members),
		"success_count", successCount)
	return successCount
}
