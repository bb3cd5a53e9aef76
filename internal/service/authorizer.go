package service

import (
	"Agora/internal/model"
	"slices"
)

// Requester 当前操作者
type Requester struct {
	UserID uint64
	Roles  []string
}

// Authorizer 判断操作者能否删除评论
type Authorizer interface {
	CanDelete(comment *model.PostComment, requester Requester) bool
}

// OwnerAuthorizer 仅作者本人可删除
type OwnerAuthorizer struct{}

func (OwnerAuthorizer) CanDelete(comment *model.PostComment, requester Requester) bool {
	return comment != nil && comment.IsAuthor(requester.UserID)
}

// ModeratorAuthorizer 拥有指定角色的用户可删除任意评论，其余交给 Next
type ModeratorAuthorizer struct {
	Roles []string
	Next  Authorizer
}

func NewModeratorAuthorizer(roles []string) *ModeratorAuthorizer {
	return &ModeratorAuthorizer{Roles: roles, Next: OwnerAuthorizer{}}
}

func (a *ModeratorAuthorizer) CanDelete(comment *model.PostComment, requester Requester) bool {
	if comment == nil {
		return false
	}
	if requester.UserID != 0 {
		for _, r := range requester.Roles {
			if slices.Contains(a.Roles, r) {
				return true
			}
		}
	}
	if a.Next == nil {
		return false
	}
	return a.Next.CanDelete(comment, requester)
}
