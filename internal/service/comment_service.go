package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/commentpath"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/redis"
	"Agora/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/copier"
)

const (
	DefaultMaxDepth           = 1
	DefaultDeletedPlaceholder = "this comment has been deleted"
	commentCountExpiration    = 7 * 24 * time.Hour
)

// CommentOptions 评论树参数
type CommentOptions struct {
	// MaxDepth 允许的最大 depth，根评论为 0
	MaxDepth           int
	DeletedPlaceholder string
	SecretPlaceholder  string
}

// CommentInput 调用方提供的评论内容
type CommentInput struct {
	Content  string
	Format   string
	IsSecret bool
	IP       string
}

type CommentService interface {
	CreateRootComment(ctx context.Context, post *model.Post, authorID uint64, input *CommentInput) (*model.PostComment, error)
	CreateReply(ctx context.Context, parent *model.PostComment, authorID uint64, input *CommentInput) (*model.PostComment, error)
	GetTree(ctx context.Context, post *model.Post) ([]*model.PostComment, error)
	DeleteComment(ctx context.Context, comment *model.PostComment, requester Requester) error

	CreateComment(ctx context.Context, userID uint64, ip string, req *dto.CommentCreateDTO) (*dto.CommentDTO, error)
	RemoveComment(ctx context.Context, requester Requester, commentID uint64) error
	GetCommentTree(ctx context.Context, postID, viewerID uint64) ([]*dto.CommentDTO, error)
	GetPostCommentCount(ctx context.Context, postID uint64) (int64, error)
	ReconcilePostCounters(ctx context.Context, postID uint64) error
}

type commentServiceImpl struct {
	uow         repository.UnitOfWork
	commentRepo repository.CommentRepo
	postRepo    repository.PostRepo
	userRepo    repository.UserRepo
	authorizer  Authorizer
	opts        CommentOptions
}

func NewCommentService(
	uow repository.UnitOfWork,
	commentRepo repository.CommentRepo,
	postRepo repository.PostRepo,
	userRepo repository.UserRepo,
	authorizer Authorizer,
	opts CommentOptions,
) CommentService {
	if opts.MaxDepth < 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.DeletedPlaceholder == "" {
		opts.DeletedPlaceholder = DefaultDeletedPlaceholder
	}
	if authorizer == nil {
		authorizer = OwnerAuthorizer{}
	}
	return &commentServiceImpl{
		uow:         uow,
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		authorizer:  authorizer,
		opts:        opts,
	}
}

// CreateRootComment 插入、写入路径、帖子评论数 +1 在同一事务内完成
func (s *commentServiceImpl) CreateRootComment(ctx context.Context, post *model.Post, authorID uint64, input *CommentInput) (*model.PostComment, error) {
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !validInput(input) {
		return nil, ErrParamInvalid
	}

	comment := newComment(post.ID, post.BoardID, authorID, input)
	err := s.uow.Execute(ctx, func(repos *repository.TxRepos) error {
		if err := repos.CommentRepo.CreateComment(ctx, comment); err != nil {
			return persistenceErr("insert comment", err)
		}
		comment.Path = commentpath.Root(comment.ID)
		if err := repos.CommentRepo.UpdateCommentPath(ctx, comment.ID, comment.Path); err != nil {
			return persistenceErr("assign path", err)
		}
		rows, err := repos.PostRepo.IncrCommentsCount(ctx, post.ID)
		if err != nil {
			return persistenceErr("increment post counter", err)
		}
		if rows == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return nil, txErr("create root comment", err)
	}

	post.CommentsCount++
	s.dropCountCache(ctx, post.ID)
	log.InfoContext(ctx, "root comment created", "post_id", post.ID, "comment_id", comment.ID)
	return comment, nil
}

// CreateReply 父评论已达最大层级时直接拒绝，不写入任何数据
func (s *commentServiceImpl) CreateReply(ctx context.Context, parent *model.PostComment, authorID uint64, input *CommentInput) (*model.PostComment, error) {
	if parent == nil {
		return nil, ErrPostCommentNotFound
	}
	if parent.Depth >= s.opts.MaxDepth {
		return nil, &DepthLimitError{MaxLevels: s.opts.MaxDepth + 1}
	}
	if parent.IsTombstoned() {
		return nil, ErrPostCommentNotFound
	}
	if !validInput(input) {
		return nil, ErrParamInvalid
	}

	comment := newComment(parent.PostID, parent.BoardID, authorID, input)
	parentID := parent.ID
	comment.ParentID = &parentID
	comment.Depth = parent.Depth + 1

	err := s.uow.Execute(ctx, func(repos *repository.TxRepos) error {
		if err := repos.CommentRepo.CreateComment(ctx, comment); err != nil {
			return persistenceErr("insert reply", err)
		}
		comment.Path = commentpath.Child(parent.Path, comment.ID)
		if err := repos.CommentRepo.UpdateCommentPath(ctx, comment.ID, comment.Path); err != nil {
			return persistenceErr("assign path", err)
		}
		rows, err := repos.CommentRepo.IncrReplyCount(ctx, parent.ID)
		if err != nil {
			return persistenceErr("increment reply counter", err)
		}
		if rows == 0 {
			return ErrPostCommentNotFound
		}
		rows, err = repos.PostRepo.IncrCommentsCount(ctx, parent.PostID)
		if err != nil {
			return persistenceErr("increment post counter", err)
		}
		if rows == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return nil, txErr("create reply", err)
	}

	parent.ReplyCount++
	s.dropCountCache(ctx, parent.PostID)
	log.InfoContext(ctx, "reply created", "post_id", parent.PostID, "parent_id", parent.ID, "comment_id", comment.ID)
	return comment, nil
}

// GetTree 一次查询后按路径数值段稳定排序，得到先序遍历
func (s *commentServiceImpl) GetTree(ctx context.Context, post *model.Post) ([]*model.PostComment, error) {
	if post == nil {
		return nil, ErrPostNotFound
	}
	comments, err := s.commentRepo.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return nil, persistenceErr("load comments", err)
	}
	commentpath.SortByPath(comments, func(c *model.PostComment) string { return c.Path })
	return comments, nil
}

// DeleteComment 无子评论时物理删除，否则覆盖正文保留节点
func (s *commentServiceImpl) DeleteComment(ctx context.Context, comment *model.PostComment, requester Requester) error {
	if comment == nil {
		return ErrPostCommentNotFound
	}
	if !s.authorizer.CanDelete(comment, requester) {
		return ErrCommentNotOwner
	}
	if comment.IsTombstoned() && comment.ReplyCount > 0 {
		return ErrPostCommentNotFound
	}

	var hardDeleted, drift bool
	err := s.uow.Execute(ctx, func(repos *repository.TxRepos) error {
		rows, err := repos.CommentRepo.HardDeleteLeaf(ctx, comment.ID)
		if err != nil {
			return persistenceErr("delete comment", err)
		}
		if rows > 0 {
			hardDeleted = true
			if comment.ParentID != nil {
				n, err := repos.CommentRepo.DecrReplyCount(ctx, *comment.ParentID)
				if err != nil {
					return persistenceErr("decrement reply counter", err)
				}
				drift = n == 0
			}
		} else {
			if err := repos.CommentRepo.TombstoneComment(ctx, comment.ID, s.opts.DeletedPlaceholder); err != nil {
				return persistenceErr("tombstone comment", err)
			}
		}

		count, err := repos.CommentRepo.CountCommentsByPostID(ctx, comment.PostID)
		if err != nil {
			return persistenceErr("count comments", err)
		}
		if err := repos.PostRepo.UpdateCommentsCount(ctx, comment.PostID, count); err != nil {
			return persistenceErr("refresh post counter", err)
		}
		return nil
	})
	if err != nil {
		return txErr("delete comment", err)
	}

	if drift {
		log.WarnContext(ctx, "reply_count already zero on parent, post marked for reconcile",
			"post_id", comment.PostID, "parent_id", *comment.ParentID, "comment_id", comment.ID)
		if err := redis.SAdd(ctx, consts.PostCommentDirtyKey, strconv.FormatUint(comment.PostID, 10)); err != nil {
			log.ErrorContext(ctx, "mark post dirty error", "post_id", comment.PostID, "err", err)
		}
	}

	if !hardDeleted {
		comment.Content = s.opts.DeletedPlaceholder
		comment.Format = model.CommentFormatPlain
		comment.IsSecret = false
		comment.Status = model.CommentStatusTombstoned
	}
	s.dropCountCache(ctx, comment.PostID)
	log.InfoContext(ctx, "comment deleted", "comment_id", comment.ID, "hard", hardDeleted, "by", requester.UserID)
	return nil
}

// CreateComment parent_id 为 0 时创建根评论，否则回复同一帖子下的评论
func (s *commentServiceImpl) CreateComment(ctx context.Context, userID uint64, ip string, req *dto.CommentCreateDTO) (*dto.CommentDTO, error) {
	if req == nil {
		return nil, ErrParamInvalid
	}
	if userID != 0 {
		user, err := s.userRepo.GetUserById(ctx, userID)
		if err != nil {
			return nil, persistenceErr("load user", err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		if user.IsBan {
			return nil, ErrUserBan
		}
	}

	post, err := s.postRepo.GetPost(ctx, req.PostID)
	if err != nil {
		return nil, persistenceErr("load post", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	input := &CommentInput{
		Content:  req.Content,
		Format:   req.Format,
		IsSecret: req.IsSecret,
		IP:       ip,
	}

	var comment *model.PostComment
	if req.ParentID == 0 {
		comment, err = s.CreateRootComment(ctx, post, userID, input)
	} else {
		parent, gErr := s.commentRepo.GetCommentByID(ctx, req.ParentID)
		if gErr != nil {
			return nil, persistenceErr("load parent", gErr)
		}
		if parent == nil || parent.PostID != post.ID {
			return nil, ErrPostCommentNotFound
		}
		comment, err = s.CreateReply(ctx, parent, userID, input)
	}
	if err != nil {
		return nil, err
	}

	res := s.toCommentDTOs(ctx, []*model.PostComment{comment}, post, userID)
	return res[0], nil
}

func (s *commentServiceImpl) RemoveComment(ctx context.Context, requester Requester, commentID uint64) error {
	comment, err := s.commentRepo.GetCommentByID(ctx, commentID)
	if err != nil {
		return persistenceErr("load comment", err)
	}
	if comment == nil {
		return ErrPostCommentNotFound
	}
	return s.DeleteComment(ctx, comment, requester)
}

// GetCommentTree 返回先序排列的评论，私密评论只对作者和楼主可见
func (s *commentServiceImpl) GetCommentTree(ctx context.Context, postID, viewerID uint64) ([]*dto.CommentDTO, error) {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, persistenceErr("load post", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	comments, err := s.GetTree(ctx, post)
	if err != nil {
		return nil, err
	}
	return s.toCommentDTOs(ctx, comments, post, viewerID), nil
}

func (s *commentServiceImpl) GetPostCommentCount(ctx context.Context, postID uint64) (int64, error) {
	key := consts.PostCommentKey + strconv.FormatUint(postID, 10)
	count, err := redis.GetInt64(ctx, key)
	if err == nil {
		return count, nil
	}
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return 0, persistenceErr("load post", err)
	}
	if post == nil {
		return 0, ErrPostNotFound
	}
	realCount := int64(post.CommentsCount)
	_ = redis.SetWithExpiration(ctx, key, realCount, commentCountExpiration)
	return realCount, nil
}

// ReconcilePostCounters 按现存评论重算 reply_count 与帖子评论数
func (s *commentServiceImpl) ReconcilePostCounters(ctx context.Context, postID uint64) error {
	fixed := 0
	err := s.uow.Execute(ctx, func(repos *repository.TxRepos) error {
		comments, err := repos.CommentRepo.GetCommentsByPostID(ctx, postID)
		if err != nil {
			return persistenceErr("load comments", err)
		}
		replies, err := repos.CommentRepo.CountRepliesByPostID(ctx, postID)
		if err != nil {
			return persistenceErr("count replies", err)
		}
		for _, c := range comments {
			if c.ReplyCount == replies[c.ID] {
				continue
			}
			if err := repos.CommentRepo.UpdateReplyCount(ctx, c.ID, replies[c.ID]); err != nil {
				return persistenceErr("update reply counter", err)
			}
			fixed++
		}
		if err := repos.PostRepo.UpdateCommentsCount(ctx, postID, int64(len(comments))); err != nil {
			return persistenceErr("refresh post counter", err)
		}
		return nil
	})
	if err != nil {
		return txErr("reconcile counters", err)
	}
	s.dropCountCache(ctx, postID)
	if fixed > 0 {
		log.WarnContext(ctx, "reply counters corrected", "post_id", postID, "fixed", fixed)
	}
	return nil
}

func (s *commentServiceImpl) dropCountCache(ctx context.Context, postID uint64) {
	key := consts.PostCommentKey + strconv.FormatUint(postID, 10)
	if err := redis.DeleteKey(ctx, key); err != nil {
		log.WarnContext(ctx, "drop comment count cache error", "key", key, "err", err)
	}
}

func (s *commentServiceImpl) toCommentDTOs(ctx context.Context, comments []*model.PostComment, post *model.Post, viewerID uint64) []*dto.CommentDTO {
	userIDs := make([]uint64, 0, len(comments))
	seen := make(map[uint64]struct{}, len(comments))
	for _, c := range comments {
		if c.UserID == nil {
			continue
		}
		if _, ok := seen[*c.UserID]; ok {
			continue
		}
		seen[*c.UserID] = struct{}{}
		userIDs = append(userIDs, *c.UserID)
	}

	users := make(map[uint64]*model.UserDetail, len(userIDs))
	if len(userIDs) > 0 {
		details, err := s.userRepo.GetUserSimpleInfoByIds(ctx, userIDs)
		if err != nil {
			log.WarnContext(ctx, "load comment authors error", "err", err)
		}
		for _, d := range details {
			users[d.UserID] = d
		}
	}

	res := make([]*dto.CommentDTO, 0, len(comments))
	for _, c := range comments {
		d := &dto.CommentDTO{}
		_ = copier.Copy(d, c)
		d.UserID = 0
		if c.UserID != nil {
			d.UserID = *c.UserID
			if u, ok := users[*c.UserID]; ok {
				d.Nickname = u.Nickname
				d.AvatarURL = u.AvatarURL
			}
		}
		d.ParentID = 0
		if c.ParentID != nil {
			d.ParentID = *c.ParentID
		}
		d.IsDeleted = c.IsTombstoned()
		d.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339)

		if c.IsSecret && !c.IsTombstoned() && !canSeeSecret(c, post, viewerID) {
			d.Content = s.opts.SecretPlaceholder
		}
		res = append(res, d)
	}
	return res
}

func canSeeSecret(c *model.PostComment, post *model.Post, viewerID uint64) bool {
	if viewerID == 0 {
		return false
	}
	return c.IsAuthor(viewerID) || (post != nil && post.UserID == viewerID)
}

func newComment(postID, boardID, authorID uint64, input *CommentInput) *model.PostComment {
	comment := &model.PostComment{
		PostID:   postID,
		BoardID:  boardID,
		Content:  input.Content,
		Format:   input.Format,
		IsSecret: input.IsSecret,
		IP:       input.IP,
		Status:   model.CommentStatusActive,
	}
	if comment.Format == "" {
		comment.Format = model.CommentFormatPlain
	}
	if authorID != 0 {
		uid := authorID
		comment.UserID = &uid
	}
	return comment
}

func validInput(input *CommentInput) bool {
	return input != nil && strings.TrimSpace(input.Content) != ""
}

// txErr 领域错误原样返回，其余视为存储失败
func txErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrCommentPersistence),
		errors.Is(err, ErrPostNotFound),
		errors.Is(err, ErrPostCommentNotFound):
		return err
	}
	return persistenceErr(op, err)
}
