package model

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin 管理员账号 - 控制台的使用者，可以独立持有授权，也可以加入团队
type Admin struct {
	BaseModel
	Email     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName string    `gorm:"type:varchar(50)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(50)" json:"last_name"`
	Role      AdminRole `gorm:"type:varchar(20);default:admin" json:"role"`

	// 独立管理员的购买配额（加入团队后配额记在团队上）
	PurchasedLicenseCount       int `gorm:"default:0" json:"purchased_license_count"`
	ActivePurchasedLicenseCount int `gorm:"default:0" json:"active_purchased_license_count"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `gorm:"type:varchar(45)" json:"last_login_ip"`

	// 关联
	Memberships []TeamMember `gorm:"foreignKey:AdminID" json:"memberships,omitempty"`
}

type AdminRole string

const (
	RoleAdminClaim AdminRole = "admin" // 本系统要求的角色声明
)

func (Admin) TableName() string {
	return "admins"
}

// FullName 姓名
func (a *Admin) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// EmailDomain 邮箱域名
func (a *Admin) EmailDomain() string {
	parts := strings.SplitN(a.Email, "@", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

// SetPassword 设置密码（加密）
func (a *Admin) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (a *Admin) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}
