package handler

import (
	"strconv"

	"license-console/internal/middleware"
	"license-console/internal/model"
	"license-console/internal/pkg/response"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct{}

func NewAuditHandler() *AuditHandler {
	return &AuditHandler{}
}

// List 当前范围内的操作日志（分页）
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	action := c.Query("action")
	resource := c.Query("resource")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	adminID := middleware.GetAdminID(c)
	scope, err := service.ResolveScope(model.DB, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	query := model.DB.Model(&model.AuditLog{})
	if scope.IsTeam() {
		query = query.Where("team_id = ?", scope.TeamID)
	} else {
		query = query.Where("admin_id = ?", adminID)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	query.Count(&total)

	var logs []model.AuditLog
	query.Offset((page - 1) * pageSize).Limit(pageSize).Order("created_at DESC").Find(&logs)

	response.Success(c, gin.H{
		"logs":      logs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
