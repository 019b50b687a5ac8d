package model

// AuditLog 操作日志模型
type AuditLog struct {
	BaseModel
	TeamID       string `gorm:"type:varchar(36);index" json:"team_id"` // 所属团队（独立管理员为空）
	AdminID      string `gorm:"type:varchar(36);index" json:"admin_id"`
	AdminEmail   string `gorm:"type:varchar(100)" json:"admin_email"`
	Action       string `gorm:"type:varchar(50);not null" json:"action"`
	Resource     string `gorm:"type:varchar(50);not null" json:"resource"`
	ResourceID   string `gorm:"type:varchar(36)" json:"resource_id"`
	Description  string `gorm:"type:varchar(500)" json:"description"`
	IPAddress    string `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent    string `gorm:"type:varchar(500)" json:"user_agent"`
	RequestBody  string `gorm:"type:text" json:"request_body"`
	ResponseCode int    `gorm:"type:int" json:"response_code"`
	Duration     int64  `gorm:"type:bigint" json:"duration"` // 毫秒
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// 操作类型常量
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
	ActionImport = "import"
	ActionExport = "export"
	ActionResend = "resend"
)

// 资源类型常量
const (
	ResourceAdmin      = "admin"
	ResourceTeam       = "team"
	ResourceTeamMember = "team_member"
	ResourceInvitation = "invitation"
	ResourceLicense    = "license"
	ResourcePurchase   = "purchase"
)
