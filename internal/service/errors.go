package service

import "errors"

// 领域错误 - handler 层用 errors.Is 映射为 HTTP 状态
var (
	// 校验
	ErrInvalidEmail    = errors.New("邮箱格式无效")
	ErrInvalidQuantity = errors.New("数量必须为正整数")
	ErrInvalidName     = errors.New("名称不能为空")

	// 冲突
	ErrDuplicateLicense  = errors.New("该邮箱已存在授权")
	ErrAlreadyActivated  = errors.New("授权已激活")
	ErrAlreadyInTeam     = errors.New("已加入团队")
	ErrAlreadyMember     = errors.New("该邮箱已是团队成员")
	ErrDuplicateInvite   = errors.New("该邮箱已有待处理的邀请")
	ErrInvitationHandled = errors.New("邀请已被处理")
	ErrInvitationExpired = errors.New("邀请已过期")

	// 配额
	ErrQuotaExceeded = errors.New("可用授权不足，请购买更多授权")

	// 权限
	ErrForbidden         = errors.New("没有操作权限")
	ErrDomainNotAllowed  = errors.New("该邮箱域名不允许创建团队")
	ErrDomainMismatch    = errors.New("只能邀请团队域名下的邮箱")
	ErrCannotRemoveOwner = errors.New("不能移除所有者")
	ErrCannotDemoteOwner = errors.New("不能变更所有者的角色")

	// 资源
	ErrNotFound = errors.New("资源不存在")
)
