package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"license-console/internal/config"
	"license-console/internal/middleware"
	"license-console/internal/model"
	"license-console/internal/pkg/response"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	payments *service.PaymentService
}

func NewPurchaseHandler() *PurchaseHandler {
	return &PurchaseHandler{payments: service.NewPaymentService(model.DB)}
}

// CompletePurchaseRequest 购买入账请求
type CompletePurchaseRequest struct {
	LicenseCount int    `json:"licenseCount" binding:"required"`
	SessionID    string `json:"session_id" binding:"required"`
}

// Complete 支付确认入账。以支付会话标识幂等，重放不重复加额。
func (h *PurchaseHandler) Complete(c *gin.Context) {
	var req CompletePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	result, err := h.payments.Complete(adminID, req.SessionID, req.LicenseCount)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"licenses_added": result.LicensesAdded,
		"total_licenses": result.TotalLicenses,
	})
}

// Redirect 支付网关回跳：入账后 302 到控制台并携带结果标记
func (h *PurchaseHandler) Redirect(c *gin.Context) {
	dashboard := config.Get().App.DashboardRedirectURL
	if dashboard == "" {
		dashboard = config.Get().App.BaseURL + "/admin/dashboard"
	}

	if c.Query("payment") != "successful" || c.Query("paymentType") != "license_purchase" {
		c.Redirect(http.StatusFound, dashboard+"?purchase=error&reason=invalid_params")
		return
	}

	licenseCount, err := strconv.Atoi(c.Query("licenseCount"))
	if err != nil || licenseCount < 1 {
		c.Redirect(http.StatusFound, dashboard+"?purchase=error&reason=invalid_count")
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.Redirect(http.StatusFound, dashboard+"?purchase=error&reason=missing_session")
		return
	}

	adminID := middleware.GetAdminID(c)
	result, err := h.payments.Complete(adminID, sessionID, licenseCount)
	if err != nil {
		c.Redirect(http.StatusFound, dashboard+"?purchase=error&reason="+url.QueryEscape("apply_failed"))
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s?purchase=success&added=%d&total=%d",
		dashboard, result.LicensesAdded, result.TotalLicenses))
}
