package repository

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork 在同一个数据库事务内执行一组仓储操作
type UnitOfWork interface {
	// Execute fn 返回错误或 ctx 取消时整体回滚
	Execute(ctx context.Context, fn func(repos *TxRepos) error) error
}

// TxRepos 绑定到当前事务的仓储
type TxRepos struct {
	CommentRepo CommentRepo
	PostRepo    PostRepo
}

type gormUnitOfWork struct {
	db          *gorm.DB
	commentRepo CommentRepo
	postRepo    PostRepo
}

func NewUnitOfWork(db *gorm.DB, commentRepo CommentRepo, postRepo PostRepo) UnitOfWork {
	return &gormUnitOfWork{
		db:          db,
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (u *gormUnitOfWork) Execute(ctx context.Context, fn func(repos *TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TxRepos{
			CommentRepo: u.commentRepo.WithTx(tx),
			PostRepo:    u.postRepo.WithTx(tx),
		})
	})
}
