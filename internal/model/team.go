package model

import (
	"time"
)

// Team 团队 - 共享配额与授权的组织单位
type Team struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Domain  string `gorm:"type:varchar(100);not null" json:"domain"` // 创建时取自所有者邮箱域名，不可变更
	OwnerID string `gorm:"type:varchar(36);not null" json:"owner_id"`

	// 团队已购买的授权数量
	PurchasedLicenseCount int `gorm:"default:0" json:"purchased_license_count"`

	// 关联
	Owner    *Admin       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members  []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Licenses []License    `gorm:"foreignKey:TeamID" json:"licenses,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

// TeamMember 团队成员关联表 - 每个管理员最多属于一个团队
type TeamMember struct {
	BaseModel
	TeamID   string         `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_team_admin" json:"team_id"`
	AdminID  string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_team_admin" json:"admin_id"`
	Role     TeamMemberRole `gorm:"type:varchar(20);not null;default:member" json:"role"`
	JoinedAt time.Time      `gorm:"autoCreateTime" json:"joined_at"`

	// 关联
	Team  *Team  `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Admin *Admin `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}

// TeamMemberRole 团队成员角色
type TeamMemberRole string

const (
	RoleOwner  TeamMemberRole = "owner"  // 所有者：唯一，不可移除、不可降级
	RoleAdmin  TeamMemberRole = "admin"  // 管理员：可邀请成员、管理授权
	RoleMember TeamMemberRole = "member" // 成员：管理授权
)

func (TeamMember) TableName() string {
	return "team_members"
}

// CanInvite 是否可以邀请成员
func (m *TeamMember) CanInvite() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}

// IsOwner 是否是所有者
func (m *TeamMember) IsOwner() bool {
	return m.Role == RoleOwner
}

// TeamInvitation 团队邀请
type TeamInvitation struct {
	BaseModel
	TeamID    string           `gorm:"type:varchar(36);index;not null" json:"team_id"`
	Email     string           `gorm:"type:varchar(100);not null" json:"email"`
	Role      TeamMemberRole   `gorm:"type:varchar(20);default:member" json:"role"`
	Token     string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	InvitedBy string           `gorm:"type:varchar(36);not null" json:"invited_by"`
	Status    InvitationStatus `gorm:"type:varchar(20);default:pending" json:"status"`
	ExpiresAt time.Time        `gorm:"not null" json:"expires_at"`
	MessageID string           `gorm:"type:varchar(100)" json:"message_id,omitempty"` // 邮件服务返回的投递标识

	// 关联
	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

// InvitationStatus 邀请状态
type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"   // 待接受
	InvitationStatusAccepted  InvitationStatus = "accepted"  // 已接受
	InvitationStatusCancelled InvitationStatus = "cancelled" // 已取消
	InvitationStatusExpired   InvitationStatus = "expired"   // 已过期
)

// InvitationTTL 邀请有效期（策略常量）
const InvitationTTL = 7 * 24 * time.Hour

func (TeamInvitation) TableName() string {
	return "team_invitations"
}

// IsExpired 是否已过期（读取时惰性判断，不做后台扫描）
func (i *TeamInvitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// EffectiveStatus 返回考虑过期后的状态
func (i *TeamInvitation) EffectiveStatus() InvitationStatus {
	if i.Status == InvitationStatusPending && i.IsExpired() {
		return InvitationStatusExpired
	}
	return i.Status
}
