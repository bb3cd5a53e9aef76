package handler

import (
	"Agora/internal/api/dto"
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/util"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type CommentHandler struct {
	commentSvc service.CommentService
}

func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentSvc: commentSvc,
	}
}

// GetCommentTree 获取帖子的完整评论树
func (s *CommentHandler) GetCommentTree(c *gin.Context) {
	postID, ok := util.ParseUint64Param(c.Param("post_id"))
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	viewerID := c.GetUint64("user_id")

	res := &dto.CommentTreeDTO{PostID: postID}
	g, gCtx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		comments, err := s.commentSvc.GetCommentTree(gCtx, postID, viewerID)
		if err != nil {
			return err
		}
		res.Comments = comments
		return nil
	})
	g.Go(func() error {
		count, err := s.commentSvc.GetPostCommentCount(gCtx, postID)
		if err != nil {
			return err
		}
		res.CommentCount = count
		return nil
	})
	if err := g.Wait(); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, res)
}

// GetCommentCount 获取帖子评论数
func (s *CommentHandler) GetCommentCount(c *gin.Context) {
	postID, ok := util.ParseUint64Param(c.Param("post_id"))
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	count, err := s.commentSvc.GetPostCommentCount(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.CommentCountDTO{PostID: postID, CommentCount: count})
}

// CreateComment 发布评论或回复
func (s *CommentHandler) CreateComment(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var req dto.CommentCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	comment, err := s.commentSvc.CreateComment(c.Request.Context(), userID, c.ClientIP(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

// DeleteComment 删除评论，有回复时保留占位
func (s *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := util.ParseUint64Param(c.Param("comment_id"))
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	requester := service.Requester{
		UserID: c.GetUint64("user_id"),
		Roles:  c.GetStringSlice("roles"),
	}

	if err := s.commentSvc.RemoveComment(c.Request.Context(), requester, commentID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ReconcileCounters 管理员手动重算帖子计数
func (s *CommentHandler) ReconcileCounters(c *gin.Context) {
	postID, ok := util.ParseUint64Param(c.Param("post_id"))
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.commentSvc.ReconcilePostCounters(c.Request.Context(), postID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
