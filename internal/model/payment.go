package model

// PurchaseRecord 购买对账记录
//
// 以外部支付会话标识作为唯一键：支付跳转可能被重复访问
// （浏览器回退、webhook 重试），同一会话只允许入账一次。
type PurchaseRecord struct {
	BaseModel
	SessionID    string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"session_id"`
	AdminID      string  `gorm:"type:varchar(36);index;not null" json:"admin_id"`
	TeamID       *string `gorm:"type:varchar(36);index" json:"team_id"`
	LicenseCount int     `gorm:"not null" json:"license_count"`
	TotalAfter   int     `gorm:"not null" json:"total_after"` // 入账后的 purchased_license_count
}

func (PurchaseRecord) TableName() string {
	return "purchase_records"
}
