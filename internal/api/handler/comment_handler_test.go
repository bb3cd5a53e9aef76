package handler_test

import (
	"Agora/internal/api"
	"Agora/internal/api/config"
	"Agora/internal/api/dto"
	"Agora/internal/api/handler"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/database"
	"Agora/internal/pkg/redis"
	"Agora/internal/pkg/security"
	"Agora/internal/repository"
	"Agora/internal/service"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

const (
	alice uint64 = 1
	bob   uint64 = 2
	owner uint64 = 3
	admin uint64 = 4
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	router *gin.Engine
	postID uint64
	mr     *miniredis.Miniredis
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	security.InitJWT(config.JWTConfig{Secret: "handler-test", ExpireHour: 1})

	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redis.Rdb.Close() })

	db, err := database.NewGormDB(&config.DBConfig{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "handler.db"),
		MaxOpen:     1,
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ctx := context.Background()
	userRepo := repository.NewUserRepo(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepo(db)
	for _, id := range []uint64{alice, bob, owner, admin} {
		u := &model.User{ID: id, UserDetail: model.UserDetail{Nickname: fmt.Sprintf("user%d", id)}}
		if err := userRepo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	post := &model.Post{BoardID: 1, UserID: owner, Title: "t", Content: "c", Status: consts.PostStatusNormal}
	if err := postRepo.CreatePost(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	cfg := &config.Config{Comment: config.CommentConfig{ModeratorRoles: []string{"ADMIN"}}}
	commentSvc := service.NewCommentService(
		repository.NewUnitOfWork(db, commentRepo, postRepo),
		commentRepo, postRepo, userRepo,
		service.NewModeratorAuthorizer(cfg.Comment.ModeratorRoles),
		service.CommentOptions{
			MaxDepth:           1,
			DeletedPlaceholder: service.DefaultDeletedPlaceholder,
			SecretPlaceholder:  "secret",
		},
	)
	router := api.SetupRouter(&api.HandlersGroup{
		CommentHandler: handler.NewCommentHandler(commentSvc),
		SysBoxHandler:  handler.NewSysBoxHandler(nil),
	}, cfg)

	return &server{router: router, postID: post.ID, mr: mr}
}

func token(t *testing.T, userID uint64, roles ...string) string {
	t.Helper()
	tk, err := security.GenerateToken(userID, roles)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tk
}

func (s *server) do(t *testing.T, method, path string, body any, tk string) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tk != "" {
		req.Header.Set("Authorization", "Bearer "+tk)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: http status %d", method, path, w.Code)
	}

	var res apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return res
}

func (s *server) create(t *testing.T, tk string, parentID uint64, content string) apiResponse {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/comments", dto.CommentCreateDTO{
		PostID:   s.postID,
		ParentID: parentID,
		Content:  content,
	}, tk)
}

func decodeComment(t *testing.T, res apiResponse) dto.CommentDTO {
	t.Helper()
	if res.Code != 200 {
		t.Fatalf("unexpected code %d: %s", res.Code, res.Message)
	}
	var c dto.CommentDTO
	if err := json.Unmarshal(res.Data, &c); err != nil {
		t.Fatalf("decode comment: %v", err)
	}
	return c
}

func (s *server) tree(t *testing.T) dto.CommentTreeDTO {
	t.Helper()
	res := s.do(t, http.MethodGet, fmt.Sprintf("/api/comments/post/%d", s.postID), nil, "")
	if res.Code != 200 {
		t.Fatalf("tree code %d: %s", res.Code, res.Message)
	}
	var tree dto.CommentTreeDTO
	if err := json.Unmarshal(res.Data, &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	return tree
}

func TestCreateAndListComments(t *testing.T) {
	s := newServer(t)
	aliceTk := token(t, alice)

	root := decodeComment(t, s.create(t, aliceTk, 0, "first"))
	if root.Depth != 0 || root.Path != fmt.Sprint(root.ID) || root.Nickname != "user1" {
		t.Fatalf("unexpected root: %+v", root)
	}

	reply := decodeComment(t, s.create(t, token(t, bob), root.ID, "second"))
	if reply.ParentID != root.ID || reply.Depth != 1 {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	// 超出层级
	res := s.create(t, aliceTk, reply.ID, "third")
	if res.Code != 400 {
		t.Fatalf("expected depth limit rejection, got %d", res.Code)
	}

	tree := s.tree(t)
	if tree.CommentCount != 2 || len(tree.Comments) != 2 {
		t.Fatalf("unexpected tree: %+v", tree)
	}
	if tree.Comments[0].ID != root.ID || tree.Comments[1].ID != reply.ID {
		t.Fatalf("comments out of order")
	}
	if tree.Comments[0].ReplyCount != 1 {
		t.Fatalf("reply_count = %d", tree.Comments[0].ReplyCount)
	}
}

func TestCreateCommentRequiresLogin(t *testing.T) {
	s := newServer(t)

	if res := s.create(t, "", 0, "hi"); res.Code != 401 {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if res := s.create(t, "not-a-token", 0, "hi"); res.Code != 401 {
		t.Fatalf("expected 401 for malformed token, got %d", res.Code)
	}
}

func TestCreateCommentRejectsBadInput(t *testing.T) {
	s := newServer(t)
	tk := token(t, alice)

	if res := s.create(t, tk, 0, ""); res.Code != 400 {
		t.Fatalf("empty content should be rejected, got %d", res.Code)
	}
	if res := s.create(t, tk, 999, "orphan"); res.Code != 404 {
		t.Fatalf("missing parent should be 404, got %d", res.Code)
	}

	res := s.do(t, http.MethodPost, "/api/comments", map[string]any{
		"post_id": s.postID,
		"content": "x",
		"format":  "html",
	}, tk)
	if res.Code != 400 {
		t.Fatalf("unknown format should be rejected, got %d", res.Code)
	}
}

func TestDeleteComment(t *testing.T) {
	s := newServer(t)
	aliceTk := token(t, alice)

	root := decodeComment(t, s.create(t, aliceTk, 0, "root"))
	reply := decodeComment(t, s.create(t, token(t, bob), root.ID, "reply"))

	path := fmt.Sprintf("/api/comments/%d", root.ID)
	if res := s.do(t, http.MethodDelete, path, nil, token(t, bob)); res.Code != 403 {
		t.Fatalf("non-owner delete should be 403, got %d", res.Code)
	}
	if res := s.do(t, http.MethodDelete, path, nil, aliceTk); res.Code != 200 {
		t.Fatalf("owner delete failed: %d %s", res.Code, res.Message)
	}

	tree := s.tree(t)
	if len(tree.Comments) != 2 {
		t.Fatalf("root with replies should stay as tombstone, got %d comments", len(tree.Comments))
	}
	if !tree.Comments[0].IsDeleted || tree.Comments[0].Content != service.DefaultDeletedPlaceholder {
		t.Fatalf("root not tombstoned: %+v", tree.Comments[0])
	}

	// 版主删除叶子
	leaf := fmt.Sprintf("/api/comments/%d", reply.ID)
	if res := s.do(t, http.MethodDelete, leaf, nil, token(t, admin, "ADMIN")); res.Code != 200 {
		t.Fatalf("moderator delete failed: %d %s", res.Code, res.Message)
	}
	if tree = s.tree(t); len(tree.Comments) != 1 || tree.CommentCount != 1 {
		t.Fatalf("unexpected tree after leaf delete: %+v", tree)
	}

	if res := s.do(t, http.MethodDelete, "/api/comments/abc", nil, aliceTk); res.Code != 400 {
		t.Fatalf("bad id should be 400, got %d", res.Code)
	}
}

func TestCommentCountAndReconcile(t *testing.T) {
	s := newServer(t)
	decodeComment(t, s.create(t, token(t, alice), 0, "one"))

	res := s.do(t, http.MethodGet, fmt.Sprintf("/api/comments/post/%d/count", s.postID), nil, "")
	var count dto.CommentCountDTO
	if err := json.Unmarshal(res.Data, &count); err != nil || count.CommentCount != 1 {
		t.Fatalf("unexpected count: %+v %v", count, err)
	}

	reconcile := fmt.Sprintf("/api/comments/post/%d/reconcile", s.postID)
	if res := s.do(t, http.MethodPost, reconcile, nil, token(t, alice)); res.Code != 403 {
		t.Fatalf("non-moderator reconcile should be 403, got %d", res.Code)
	}
	if res := s.do(t, http.MethodPost, reconcile, nil, token(t, admin, "ADMIN")); res.Code != 200 {
		t.Fatalf("reconcile failed: %d %s", res.Code, res.Message)
	}

	if res := s.do(t, http.MethodGet, "/api/comments/post/777", nil, ""); res.Code != 404 {
		t.Fatalf("missing post should be 404, got %d", res.Code)
	}
}

func TestBlacklistedTokenRejected(t *testing.T) {
	s := newServer(t)
	tk := token(t, alice)
	sig, err := security.ExtractSignature(tk)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.mr.Set(consts.TokenBlacklistKey+sig, "1"); err != nil {
		t.Fatal(err)
	}

	if res := s.create(t, tk, 0, "hi"); res.Code != 401 {
		t.Fatalf("blacklisted token should be 401, got %d", res.Code)
	}
}
