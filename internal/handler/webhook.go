package handler

import (
	"encoding/json"

	"license-console/internal/middleware"
	"license-console/internal/model"
	"license-console/internal/pkg/response"
	"license-console/internal/pkg/utils"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct{}

func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{}
}

// CreateWebhookRequest 创建 Webhook 请求
type CreateWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events" binding:"required,min=1"`
}

// Create 创建 Webhook 订阅。Secret 仅在创建时返回一次。
func (h *WebhookHandler) Create(c *gin.Context) {
	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	scope, err := service.ResolveScope(model.DB, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	events, err := json.Marshal(req.Events)
	if err != nil {
		response.BadRequest(c, "事件列表无效")
		return
	}

	webhook := model.Webhook{
		AdminID: adminID,
		TeamID:  scope.TeamIDPtr(),
		URL:     req.URL,
		Secret:  utils.GenerateRandomString(40),
		Events:  string(events),
		Status:  "active",
	}
	if err := model.DB.Create(&webhook).Error; err != nil {
		response.ServerError(c, "创建 Webhook 失败")
		return
	}

	response.Created(c, "Webhook 已创建", gin.H{
		"id":     webhook.ID,
		"url":    webhook.URL,
		"events": req.Events,
		"secret": webhook.Secret,
	})
}

// List 当前范围内的 Webhook 列表
func (h *WebhookHandler) List(c *gin.Context) {
	adminID := middleware.GetAdminID(c)
	scope, err := service.ResolveScope(model.DB, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	query := model.DB.Model(&model.Webhook{})
	if scope.IsTeam() {
		query = query.Where("team_id = ?", scope.TeamID)
	} else {
		query = query.Where("admin_id = ? AND team_id IS NULL", adminID)
	}

	var webhooks []model.Webhook
	if err := query.Order("created_at DESC").Find(&webhooks).Error; err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, gin.H{"webhooks": webhooks})
}

// Delete 删除 Webhook
func (h *WebhookHandler) Delete(c *gin.Context) {
	adminID := middleware.GetAdminID(c)
	scope, err := service.ResolveScope(model.DB, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	query := model.DB.Where("id = ?", c.Param("id"))
	if scope.IsTeam() {
		query = query.Where("team_id = ?", scope.TeamID)
	} else {
		query = query.Where("admin_id = ? AND team_id IS NULL", adminID)
	}

	var webhook model.Webhook
	if err := query.First(&webhook).Error; err != nil {
		response.NotFound(c, "Webhook 不存在")
		return
	}
	if err := model.DB.Delete(&webhook).Error; err != nil {
		response.ServerError(c, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "Webhook 已删除", nil)
}
