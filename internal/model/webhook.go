package model

import "time"

// Webhook 配置 - 按归属范围订阅授权事件
type Webhook struct {
	BaseModel
	AdminID         string     `gorm:"type:varchar(36);index" json:"admin_id"`
	TeamID          *string    `gorm:"type:varchar(36);index" json:"team_id"`
	URL             string     `gorm:"type:varchar(500);not null" json:"url"`
	Secret          string     `gorm:"type:varchar(100);not null" json:"-"`
	Events          string     `gorm:"type:text;not null" json:"events"` // JSON 数组
	Status          string     `gorm:"type:varchar(20);default:active" json:"status"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
}

func (Webhook) TableName() string {
	return "webhooks"
}

// WebhookLog Webhook 日志
type WebhookLog struct {
	BaseModel
	WebhookID    string `gorm:"type:varchar(36);not null;index" json:"webhook_id"`
	EventType    string `gorm:"type:varchar(50);not null" json:"event_type"`
	Success      bool   `json:"success"`
	ResponseBody string `gorm:"type:text" json:"response_body"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}
