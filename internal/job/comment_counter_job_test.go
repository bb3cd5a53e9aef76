package job

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/redis"
	"Agora/internal/service"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

type fakeCommentService struct {
	service.CommentService
	reconciled []uint64
	failOn     uint64
}

func (f *fakeCommentService) ReconcilePostCounters(_ context.Context, postID uint64) error {
	if postID == f.failOn {
		return errors.New("db down")
	}
	f.reconciled = append(f.reconciled, postID)
	return nil
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redis.Rdb.Close() })
	return mr
}

func TestRunOnceReconcilesDirtyPosts(t *testing.T) {
	mr := setupRedis(t)
	if _, err := mr.SAdd(consts.PostCommentDirtyKey, "1", "2", "oops", "3"); err != nil {
		t.Fatal(err)
	}

	svc := &fakeCommentService{failOn: 2}
	n := NewCommentCounterJob(svc).RunOnce(context.Background())
	if n != 2 {
		t.Fatalf("success count = %d", n)
	}
	sort.Slice(svc.reconciled, func(i, j int) bool { return svc.reconciled[i] < svc.reconciled[j] })
	if len(svc.reconciled) != 2 || svc.reconciled[0] != 1 || svc.reconciled[1] != 3 {
		t.Fatalf("reconciled = %v", svc.reconciled)
	}

	members, _ := mr.Members(consts.PostCommentDirtyKey)
	if len(members) != 1 || members[0] != "2" {
		t.Fatalf("failed post should be requeued, dirty = %v", members)
	}
	if mr.Exists(consts.PostCommentDirtyKey + ":processing") {
		t.Fatalf("processing set should be removed")
	}
	if mr.Exists(consts.CommentCounterJobLock) {
		t.Fatalf("lock should be released")
	}
}

func TestRunOnceWithoutDirtyPosts(t *testing.T) {
	setupRedis(t)
	svc := &fakeCommentService{}
	if n := NewCommentCounterJob(svc).RunOnce(context.Background()); n != 0 || len(svc.reconciled) != 0 {
		t.Fatalf("nothing should be reconciled")
	}
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	mr := setupRedis(t)
	_ = mr.Set(consts.CommentCounterJobLock, "other")
	_, _ = mr.SAdd(consts.PostCommentDirtyKey, "1")

	svc := &fakeCommentService{}
	if n := NewCommentCounterJob(svc).RunOnce(context.Background()); n != 0 {
		t.Fatalf("locked job should not run")
	}
	if ok, _ := mr.SIsMember(consts.PostCommentDirtyKey, "1"); !ok {
		t.Fatalf("dirty set should be untouched")
	}
}
