package service

import (
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/mongo"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

type memSysBoxRepo struct {
	mu   sync.Mutex
	msgs []*mongo.SysBoxModel
}

func (r *memSysBoxRepo) CreateNotification(_ context.Context, msg *mongo.SysBoxModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.CommentID == msg.CommentID && m.ReceiverID == msg.ReceiverID {
			return nil
		}
	}
	msg.ID = primitive.NewObjectID()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *memSysBoxRepo) DeleteByCommentID(_ context.Context, commentID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.msgs[:0]
	var n int64
	for _, m := range r.msgs {
		if m.CommentID == commentID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.msgs = kept
	return n, nil
}

func (r *memSysBoxRepo) GetNotificationList(_ context.Context, userID uint64, limit, offset int64) ([]*mongo.SysBoxModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*mongo.SysBoxModel
	for _, m := range r.msgs {
		if m.ReceiverID == userID {
			res = append(res, m)
		}
	}
	if offset >= int64(len(res)) {
		return nil, nil
	}
	res = res[offset:]
	if int64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *memSysBoxRepo) MarkAsRead(_ context.Context, userID uint64, msgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID.Hex() == msgID && m.ReceiverID == userID {
			m.IsRead = true
		}
	}
	return nil
}

func (r *memSysBoxRepo) MarkAllAsRead(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ReceiverID == userID {
			m.IsRead = true
		}
	}
	return nil
}

func (r *memSysBoxRepo) GetUnreadCount(_ context.Context, userID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.msgs {
		if m.ReceiverID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *memSysBoxRepo) GetByID(_ context.Context, id primitive.ObjectID) (*mongo.SysBoxModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, mongoDB.ErrNoDocuments
}

func newSysBoxEnv(t *testing.T) (*testEnv, *memSysBoxRepo, SysBoxService) {
	t.Helper()
	env := newTestEnv(t, defaultOpts(), OwnerAuthorizer{})
	repo := &memSysBoxRepo{}
	return env, repo, NewSysBoxService(repo, env.userRepo, env.postRepo, env.commentRepo)
}

func TestNotifyCommentCreated(t *testing.T) {
	env, repo, svc := newSysBoxEnv(t)
	ctx := context.Background()

	root, err := env.svc.CreateRootComment(ctx, env.post, userA, &CommentInput{Content: "nice post"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyCommentCreated(ctx, root); err != nil {
		t.Fatal(err)
	}

	reply, err := env.svc.CreateReply(ctx, root, userB, &CommentInput{Content: strings.Repeat("字", 60)})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyCommentCreated(ctx, reply); err != nil {
		t.Fatal(err)
	}

	if len(repo.msgs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(repo.msgs))
	}
	if m := repo.msgs[0]; m.ReceiverID != postOwner || m.Type != consts.SysBoxTypeComment || m.CommentID != root.ID {
		t.Fatalf("unexpected root notification: %+v", m)
	}
	m := repo.msgs[1]
	if m.ReceiverID != userA || m.Type != consts.SysBoxTypeReply || m.Payload["parent_id"] != root.ID {
		t.Fatalf("unexpected reply notification: %+v", m)
	}
	if len([]rune(m.Content)) != previewRunes+3 {
		t.Fatalf("preview not truncated: %q", m.Content)
	}

	// 重放同一条评论不会重复通知
	if err := svc.NotifyCommentCreated(ctx, reply); err != nil || len(repo.msgs) != 2 {
		t.Fatalf("replay produced duplicate: %v %d", err, len(repo.msgs))
	}

	if err := svc.RevokeCommentNotifications(ctx, reply.ID); err != nil {
		t.Fatal(err)
	}
	if len(repo.msgs) != 1 {
		t.Fatalf("revoke left %d notifications", len(repo.msgs))
	}
}

func TestNotifySkipsSelf(t *testing.T) {
	env, repo, svc := newSysBoxEnv(t)
	ctx := context.Background()

	own, err := env.svc.CreateRootComment(ctx, env.post, postOwner, &CommentInput{Content: "bump"})
	if err != nil {
		t.Fatal(err)
	}
	selfReply, err := env.svc.CreateReply(ctx, own, postOwner, &CommentInput{Content: "me again"})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []*model.PostComment{own, selfReply, nil} {
		if err := svc.NotifyCommentCreated(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	if len(repo.msgs) != 0 {
		t.Fatalf("self actions should not notify, got %d", len(repo.msgs))
	}
}

func TestSecretCommentPreviewHidden(t *testing.T) {
	env, repo, svc := newSysBoxEnv(t)
	ctx := context.Background()

	c, err := env.svc.CreateRootComment(ctx, env.post, userA, &CommentInput{Content: "psst", IsSecret: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyCommentCreated(ctx, c); err != nil {
		t.Fatal(err)
	}
	if len(repo.msgs) != 1 || repo.msgs[0].Content != "" {
		t.Fatalf("secret preview leaked: %+v", repo.msgs)
	}
}

func TestNotificationListAndRead(t *testing.T) {
	env, repo, svc := newSysBoxEnv(t)
	ctx := context.Background()

	c, err := env.svc.CreateRootComment(ctx, env.post, userA, &CommentInput{Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyCommentCreated(ctx, c); err != nil {
		t.Fatal(err)
	}
	anon, err := env.svc.CreateRootComment(ctx, env.post, 0, &CommentInput{Content: "guest"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyCommentCreated(ctx, anon); err != nil {
		t.Fatal(err)
	}

	list, err := svc.GetNotificationList(ctx, postOwner, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].SenderName != "alice" || list[1].SenderName != "匿名用户" {
		t.Fatalf("unexpected list: %+v", list)
	}

	unread, err := svc.GetUnreadCount(ctx, postOwner)
	if err != nil || unread.UnreadCount != 2 {
		t.Fatalf("unread = %+v, %v", unread, err)
	}

	if err := svc.MarkRead(ctx, postOwner, "zz"); !errors.Is(err, ErrParamInvalid) {
		t.Fatalf("bad id: %v", err)
	}
	if err := svc.MarkRead(ctx, postOwner, primitive.NewObjectID().Hex()); !errors.Is(err, ErrSysBoxNotFound) {
		t.Fatalf("missing id: %v", err)
	}
	msgID := repo.msgs[0].ID.Hex()
	if err := svc.MarkRead(ctx, userB, msgID); !errors.Is(err, UnauthorizedError) {
		t.Fatalf("foreign receiver: %v", err)
	}
	if err := svc.MarkRead(ctx, postOwner, msgID); err != nil {
		t.Fatal(err)
	}
	if unread, _ = svc.GetUnreadCount(ctx, postOwner); unread.UnreadCount != 1 {
		t.Fatalf("unread after MarkRead = %d", unread.UnreadCount)
	}
	if err := svc.MarkAllRead(ctx, postOwner); err != nil {
		t.Fatal(err)
	}
	if unread, _ = svc.GetUnreadCount(ctx, postOwner); unread.UnreadCount != 0 {
		t.Fatalf("unread after MarkAllRead = %d", unread.UnreadCount)
	}
}
