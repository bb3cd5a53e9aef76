package consts

const (
	PostCommentKey      = "post:comment:"
	PostCommentDirtyKey = "post:comment:dirty"
	TokenBlacklistKey   = "token:blacklist:"
)

const (
	CommentCounterJobLock = "lock:job:comment:counter"
)
