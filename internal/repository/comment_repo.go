package repository

import (
	"Agora/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type CommentRepo interface {
	WithTx(tx *gorm.DB) CommentRepo
	CreateComment(ctx context.Context, comment *model.PostComment) error
	UpdateCommentPath(ctx context.Context, id uint64, path string) error
	IncrReplyCount(ctx context.Context, id uint64) (int64, error)
	DecrReplyCount(ctx context.Context, id uint64) (int64, error)
	TombstoneComment(ctx context.Context, id uint64, placeholder string) error
	HardDeleteLeaf(ctx context.Context, id uint64) (int64, error)
	UpdateReplyCount(ctx context.Context, id uint64, count int) error
	GetCommentByID(ctx context.Context, id uint64) (*model.PostComment, error)
	GetCommentsByPostID(ctx context.Context, postID uint64) ([]*model.PostComment, error)
	CountCommentsByPostID(ctx context.Context, postID uint64) (int64, error)
	CountRepliesByPostID(ctx context.Context, postID uint64) (map[uint64]int, error)
}

type CommentRepoImpl struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) CommentRepo {
	return &CommentRepoImpl{db: db}
}

func (s *CommentRepoImpl) WithTx(tx *gorm.DB) CommentRepo {
	return &CommentRepoImpl{db: tx}
}

func (s *CommentRepoImpl) CreateComment(ctx context.Context, comment *model.PostComment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

func (s *CommentRepoImpl) UpdateCommentPath(ctx context.Context, id uint64, path string) error {
	return s.db.WithContext(ctx).Model(&model.PostComment{}).
		Where("id = ?", id).
		Update("path", path).Error
}

// IncrReplyCount 原子自增，返回受影响行数，0 表示父评论已删除或已被标记删除
func (s *CommentRepoImpl) IncrReplyCount(ctx context.Context, id uint64) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.PostComment{}).
		Where("id = ? AND status = ?", id, model.CommentStatusActive).
		UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1))
	return result.RowsAffected, result.Error
}

// DecrReplyCount 原子自减，reply_count 已为 0 时不更新
func (s *CommentRepoImpl) DecrReplyCount(ctx context.Context, id uint64) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.PostComment{}).
		Where("id = ? AND reply_count > ?", id, 0).
		UpdateColumn("reply_count", gorm.Expr("reply_count - ?", 1))
	return result.RowsAffected, result.Error
}

// TombstoneComment 覆盖正文并清空渲染/私密标记，树结构字段保持不变
func (s *CommentRepoImpl) TombstoneComment(ctx context.Context, id uint64, placeholder string) error {
	return s.db.WithContext(ctx).Model(&model.PostComment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   placeholder,
			"format":    model.CommentFormatPlain,
			"is_secret": false,
			"status":    model.CommentStatusTombstoned,
		}).Error
}

// HardDeleteLeaf 仅当没有子评论时物理删除
func (s *CommentRepoImpl) HardDeleteLeaf(ctx context.Context, id uint64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("id = ? AND reply_count = ?", id, 0).
		Delete(&model.PostComment{})
	return result.RowsAffected, result.Error
}

func (s *CommentRepoImpl) UpdateReplyCount(ctx context.Context, id uint64, count int) error {
	return s.db.WithContext(ctx).Model(&model.PostComment{}).
		Where("id = ?", id).
		UpdateColumn("reply_count", count).Error
}

func (s *CommentRepoImpl) GetCommentByID(ctx context.Context, id uint64) (*model.PostComment, error) {
	var comment model.PostComment
	err := s.db.WithContext(ctx).First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByPostID 按 id 升序返回帖子下的全部评论，树序由调用方排序
func (s *CommentRepoImpl) GetCommentsByPostID(ctx context.Context, postID uint64) ([]*model.PostComment, error) {
	comments := make([]*model.PostComment, 0)
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *CommentRepoImpl) CountCommentsByPostID(ctx context.Context, postID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PostComment{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

// CountRepliesByPostID 统计帖子下每条评论的直接子评论数
func (s *CommentRepoImpl) CountRepliesByPostID(ctx context.Context, postID uint64) (map[uint64]int, error) {
	var results []struct {
		ParentID uint64
		Count    int
	}
	err := s.db.WithContext(ctx).Model(&model.PostComment{}).
		Select("parent_id, COUNT(*) AS count").
		Where("post_id = ? AND parent_id IS NOT NULL", postID).
		Group("parent_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	m := make(map[uint64]int, len(results))
	for _, r := range results {
		m[r.ParentID] = r.Count
	}
	return m, nil
}
