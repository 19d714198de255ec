package errs

// 错误码区间：1xxx 通用，2xxx 关系/会话业务
const (
	ArgsErrCode         = 1001
	UnauthorizedErrCode = 1002
	RecordNotFoundCode  = 1003
	UpstreamErrCode     = 1004
	DuplicatedErrCode   = 1005

	RelationshipNotFoundCode  = 2001
	ConversationNotFoundCode  = 2002
	NotConversationMemberCode = 2003
)

var (
	ErrArgs         = NewCodeError(ArgsErrCode, "ArgsError")
	ErrUnauthorized = NewCodeError(UnauthorizedErrCode, "Unauthorized")
	ErrNotFound     = NewCodeError(RecordNotFoundCode, "RecordNotFound")
	ErrUpstream     = NewCodeError(UpstreamErrCode, "UpstreamUnavailable")
	ErrDuplicated   = NewCodeError(DuplicatedErrCode, "DuplicatedRecord")

	ErrRelationshipNotFound  = NewCodeError(RelationshipNotFoundCode, "RelationshipNotFound")
	ErrConversationNotFound  = NewCodeError(ConversationNotFoundCode, "ConversationNotFound")
	ErrNotConversationMember = NewCodeError(NotConversationMemberCode, "NotConversationMember")
)
