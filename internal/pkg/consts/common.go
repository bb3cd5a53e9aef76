package consts

const (
	PostStatusNormal = 1
)

const (
	DefaultAvatarURL = "default_avatar.png"
)

// 系统通知类型
const (
	SysBoxTypeComment int8 = 1
	SysBoxTypeReply   int8 = 2
)

// AnonymousSenderID 匿名评论产生的通知
const AnonymousSenderID uint64 = 0
