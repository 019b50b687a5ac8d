package model

import (
	"time"
)

// License 席位授权 - 以受邀人邮箱标识的一个可分配席位
//
// 归属范围二选一：加入团队的管理员创建的授权记在 TeamID 上，
// 独立管理员创建的授权只记 AdminID。邮箱在归属范围内唯一
// （写入前统一 trim + 小写）。唯一性按范围判定而非按创建者：
// AdminID 只是操作记录，同一创建者离队后可在独立范围重用团队里的邮箱。
// 团队范围由 idx_team_email 兜底，独立范围靠事务内的范围查重。
type License struct {
	BaseModel
	AdminID string  `gorm:"type:varchar(36);index;not null" json:"admin_id"`                  // 创建者
	TeamID  *string `gorm:"type:varchar(36);index;uniqueIndex:idx_team_email" json:"team_id"` // 团队归属（可空）
	Email   string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_team_email" json:"email"`

	// 激活时由最终用户补全
	BusinessName string `gorm:"type:varchar(200)" json:"business_name"`
	BusinessType string `gorm:"type:varchar(100)" json:"business_type"`

	IsActivated bool       `gorm:"default:false;index" json:"is_activated"`
	ActivatedAt *time.Time `json:"activated_at"`

	PerformedBy string `gorm:"type:varchar(36)" json:"performed_by"`                // 操作者（批量导入时记录）
	MessageID   string `gorm:"type:varchar(100)" json:"message_id,omitempty"`       // 激活邮件投递标识

	// 关联
	Admin *Admin `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Team  *Team  `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

func (License) TableName() string {
	return "licenses"
}

// Status 展示用状态
func (l *License) Status() string {
	if l.IsActivated {
		return "Active"
	}
	return "Pending"
}
