package service

import (
	"Agora/internal/model"
	"testing"
)

func TestOwnerAuthorizer(t *testing.T) {
	author := uint64(7)
	c := &model.PostComment{ID: 1, UserID: &author}
	a := OwnerAuthorizer{}

	if !a.CanDelete(c, Requester{UserID: 7}) {
		t.Fatalf("author should be able to delete")
	}
	if a.CanDelete(c, Requester{UserID: 8}) {
		t.Fatalf("other user should not be able to delete")
	}
	if a.CanDelete(c, Requester{UserID: 8, Roles: []string{"ADMIN"}}) {
		t.Fatalf("owner check ignores roles")
	}
	if a.CanDelete(&model.PostComment{ID: 2}, Requester{UserID: 0}) {
		t.Fatalf("anonymous comment has no owner")
	}
}

func TestModeratorAuthorizer(t *testing.T) {
	author := uint64(7)
	c := &model.PostComment{ID: 1, UserID: &author}
	a := NewModeratorAuthorizer([]string{"ADMIN"})

	if !a.CanDelete(c, Requester{UserID: 9, Roles: []string{"USER", "ADMIN"}}) {
		t.Fatalf("moderator should be able to delete")
	}
	if !a.CanDelete(c, Requester{UserID: 7}) {
		t.Fatalf("author should still be able to delete")
	}
	if a.CanDelete(c, Requester{UserID: 9, Roles: []string{"USER"}}) {
		t.Fatalf("plain user should not be able to delete")
	}
	if a.CanDelete(nil, Requester{UserID: 9, Roles: []string{"ADMIN"}}) {
		t.Fatalf("nil comment")
	}
}
