package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"license-console/internal/model"

	"gorm.io/gorm"
)

// WebhookService Webhook 服务
type WebhookService struct {
	db *gorm.DB
}

// NewWebhookService 创建 Webhook 服务
func NewWebhookService(db *gorm.DB) *WebhookService {
	return &WebhookService{db: db}
}

// WebhookEvent 事件类型
type WebhookEvent string

const (
	EventLicenseCreated   WebhookEvent = "license.created"
	EventLicenseActivated WebhookEvent = "license.activated"
	EventLicenseRemoved   WebhookEvent = "license.removed"
	EventPurchaseApplied  WebhookEvent = "purchase.applied"
	EventMemberJoined     WebhookEvent = "member.joined"
)

// WebhookPayload Webhook 负载
type WebhookPayload struct {
	Event     WebhookEvent `json:"event"`
	Timestamp int64        `json:"timestamp"`
	Data      interface{}  `json:"data"`
}

// Dispatch 向当前范围内订阅了该事件的 Webhook 异步推送
func (s *WebhookService) Dispatch(scope Scope, event WebhookEvent, data interface{}) error {
	var webhooks []model.Webhook
	q := s.db.Where("status = ?", "active")
	if scope.IsTeam() {
		q = q.Where("team_id = ?", scope.TeamID)
	} else {
		q = q.Where("admin_id = ? AND team_id IS NULL", scope.AdminID)
	}
	if err := q.Find(&webhooks).Error; err != nil {
		return err
	}
	if len(webhooks) == 0 {
		return nil
	}

	payload := WebhookPayload{
		Event:     event,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	for _, webhook := range webhooks {
		if !s.subscribed(&webhook, event) {
			continue
		}
		go s.send(webhook, event, payloadBytes)
	}

	return nil
}

// subscribed 检查 Webhook 是否订阅了该事件
func (s *WebhookService) subscribed(webhook *model.Webhook, event WebhookEvent) bool {
	var events []string
	if err := json.Unmarshal([]byte(webhook.Events), &events); err != nil {
		return false
	}
	for _, e := range events {
		if e == "*" || e == string(event) {
			return true
		}
	}
	return false
}

// send 发送单个 Webhook
func (s *WebhookService) send(webhook model.Webhook, event WebhookEvent, payload []byte) {
	signature := s.generateSignature(webhook.Secret, payload)

	req, err := http.NewRequest("POST", webhook.URL, bytes.NewBuffer(payload))
	if err != nil {
		s.logResult(webhook.ID, event, false, err.Error())
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("X-Webhook-Timestamp", time.Now().Format(time.RFC3339))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		s.logResult(webhook.ID, event, false, err.Error())
		return
	}
	defer resp.Body.Close()

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	s.logResult(webhook.ID, event, success, resp.Status)
}

// generateSignature 生成 HMAC 签名
func (s *WebhookService) generateSignature(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// logResult 记录 Webhook 结果并更新最后触发时间
func (s *WebhookService) logResult(webhookID string, event WebhookEvent, success bool, response string) {
	logEntry := model.WebhookLog{
		WebhookID:    webhookID,
		EventType:    string(event),
		Success:      success,
		ResponseBody: response,
	}
	s.db.Create(&logEntry)

	s.db.Model(&model.Webhook{}).Where("id = ?", webhookID).Update("last_triggered_at", time.Now())
}
