package service

import (
	"errors"
	"fmt"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid        = errors.New("参数错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrUserBan             = errors.New("用户已被封禁")
	ErrPostNotFound        = errors.New("帖子不存在")
	ErrPostCommentNotFound = errors.New("评论不存在")
	ErrCommentDepthLimit   = errors.New("评论层级超出限制")
	ErrCommentNotOwner     = errors.New("只能删除自己的评论")
	ErrCommentPersistence  = errors.New("评论保存失败，请稍后重试")
	ErrSysBoxNotFound      = errors.New("系统通知不存在")
	UnauthorizedError      = errors.New("权限不足")
	UnExpectedError        = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:        BadRequest,
	ErrUserNotFound:        NotFound,
	ErrUserBan:             Unauthorized,
	ErrPostNotFound:        NotFound,
	ErrPostCommentNotFound: NotFound,
	ErrCommentDepthLimit:   BadRequest,
	ErrCommentNotOwner:     Forbidden,
	ErrCommentPersistence:  InternalServerError,
	ErrSysBoxNotFound:      NotFound,
	UnauthorizedError:      Unauthorized,
	UnExpectedError:        InternalServerError,
}

// DepthLimitError 回复层级超限，MaxLevels 为允许的可见层数
type DepthLimitError struct {
	MaxLevels int
}

func (e *DepthLimitError) Error() string {
	return fmt.Sprintf("评论最多支持 %d 级", e.MaxLevels)
}

func (e *DepthLimitError) Is(target error) bool {
	return target == ErrCommentDepthLimit
}

// persistenceErr 存储层错误统一包装，原始错误保留在链上供日志使用
func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCommentPersistence, op, err)
}
