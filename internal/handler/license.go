package handler

import (
	"license-console/internal/middleware"
	"license-console/internal/model"
	"license-console/internal/pkg/response"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

type LicenseHandler struct {
	licenses *service.LicenseService
}

func NewLicenseHandler() *LicenseHandler {
	return &LicenseHandler{licenses: service.NewLicenseService(model.DB)}
}

// CreateLicenseRequest 创建授权请求
type CreateLicenseRequest struct {
	Email string `json:"email" binding:"required"`
}

// Create 创建单个授权并发送激活邀请
func (h *LicenseHandler) Create(c *gin.Context) {
	var req CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	license, emailResult, err := h.licenses.Create(adminID, req.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "授权已创建", gin.H{
		"license": license,
		"email":   emailResult,
	})
}

// BatchCreateRequest 批量创建请求
type BatchCreateRequest struct {
	Emails []string `json:"emails" binding:"required,min=1"`
}

// CreateBatch 批量创建授权。配额不足整批拒绝，单条错误不影响其余。
func (h *LicenseHandler) CreateBatch(c *gin.Context) {
	var req BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	result, err := h.licenses.CreateBatch(adminID, req.Emails)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "批量创建完成", gin.H{"results": result})
}

// List 当前范围内的授权列表（附统计）
func (h *LicenseHandler) List(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	licenses, err := h.licenses.List(adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	stats, err := h.licenses.Stats(adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"licenses":   licenses,
		"statistics": stats,
	})
}

// Stats 授权统计
func (h *LicenseHandler) Stats(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	stats, err := h.licenses.Stats(adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// Delete 删除授权（释放席位）
func (h *LicenseHandler) Delete(c *gin.Context) {
	adminID := middleware.GetAdminID(c)
	licenseID := c.Param("id")

	if err := h.licenses.Remove(adminID, licenseID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "授权已删除", nil)
}

// UpdateEmailRequest 修改授权邮箱请求
type UpdateEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// UpdateEmail 修改未激活授权的邮箱并重发激活邀请
func (h *LicenseHandler) UpdateEmail(c *gin.Context) {
	var req UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	license, emailResult, err := h.licenses.UpdateEmail(adminID, c.Param("id"), req.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邮箱已更新", gin.H{
		"license": license,
		"email":   emailResult,
	})
}

// Resend 重发激活邀请邮件
func (h *LicenseHandler) Resend(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	result, err := h.licenses.Resend(adminID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	// 重发没有"记录已保存"的部分成功语义，投递失败就是失败
	if !result.Success {
		response.ServerError(c, "邮件发送失败")
		return
	}
	response.SuccessWithMessage(c, "邀请已重新发送", gin.H{"email": result})
}

// EmailStatusRequest 批量查询邮件状态请求
type EmailStatusRequest struct {
	LicenseIDs []string `json:"license_ids" binding:"required,min=1"`
}

// EmailStatus 批量查询激活邮件投递状态
func (h *LicenseHandler) EmailStatus(c *gin.Context) {
	var req EmailStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	statuses, err := h.licenses.EmailStatuses(adminID, req.LicenseIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"statuses": statuses})
}

// ActivateRequest 激活请求（终端用户走激活链接）
type ActivateRequest struct {
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
}

// Activate 终端用户激活授权
func (h *LicenseHandler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	license, err := h.licenses.Activate(c.Param("id"), req.BusinessName, req.BusinessType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "激活成功", gin.H{"license": license})
}
