package handler

import (
	"time"

	"license-console/internal/config"
	"license-console/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(r *gin.Engine) {
	cfg := config.Get()

	// 全局中间件
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(gin.Recovery())

	// 安全响应头
	if cfg.Security.EnableSecurityHeaders {
		r.Use(middleware.SecurityHeadersMiddleware())
	}

	// 速率限制器
	limiter := middleware.NewRateLimiter(100, time.Minute)        // 普通接口：每分钟100次
	authLimiter := middleware.NewRateLimiter(10, time.Minute)     // 认证接口：每分钟10次
	activateLimiter := middleware.NewRateLimiter(30, time.Minute) // 激活接口：每分钟30次

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "license-console"})
	})

	// 初始化 Handler
	authHandler := NewAuthHandler()
	licenseHandler := NewLicenseHandler()
	teamHandler := NewTeamHandler()
	exportHandler := NewExportHandler()
	purchaseHandler := NewPurchaseHandler()
	webhookHandler := NewWebhookHandler()
	auditHandler := NewAuditHandler()

	// ==================== 公开接口 ====================
	// 认证（更严格的速率限制）
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(authLimiter))
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	// 邀请详情（接受页展示，无需登录）
	api.GET("/invitations/info", teamHandler.InvitationInfo)

	// 终端用户激活（通过邮件里的激活链接触达）
	activate := api.Group("/licenses")
	activate.Use(middleware.RateLimitMiddleware(activateLimiter))
	{
		activate.POST("/:id/activate", licenseHandler.Activate)
	}

	// ==================== 管理接口 ====================
	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.AuditMiddleware())
	{
		// 账号
		admin.GET("/auth/profile", authHandler.GetProfile)
		admin.POST("/auth/change-password", authHandler.ChangePassword)
		admin.POST("/auth/accept-invite", teamHandler.AcceptInvitation)

		// 授权
		admin.POST("/licenses", licenseHandler.Create)
		admin.POST("/licenses/batch", licenseHandler.CreateBatch)
		admin.GET("/licenses", licenseHandler.List)
		admin.GET("/licenses/stats", licenseHandler.Stats)
		admin.DELETE("/licenses/:id", licenseHandler.Delete)
		admin.PATCH("/licenses/:id/email", licenseHandler.UpdateEmail)
		admin.POST("/licenses/:id/resend", licenseHandler.Resend)
		admin.POST("/licenses/email-status", licenseHandler.EmailStatus)
		admin.POST("/licenses/import", exportHandler.ImportLicenses)
		admin.GET("/licenses/export", exportHandler.ExportLicenses)

		// 团队
		admin.POST("/teams", teamHandler.Create)
		admin.GET("/teams/current", teamHandler.Current)
		admin.PATCH("/teams/:id", teamHandler.Rename)
		admin.POST("/teams/:id/invitations", teamHandler.Invite)
		admin.DELETE("/teams/:id/invitations/:invitation_id", teamHandler.CancelInvitation)
		admin.PATCH("/teams/:id/members/:member_id", teamHandler.UpdateMember)
		admin.DELETE("/teams/:id/members/:member_id", teamHandler.RemoveMember)

		// 购买
		admin.POST("/purchases/complete", purchaseHandler.Complete)
		admin.GET("/purchases/redirect", purchaseHandler.Redirect)

		// Webhook
		admin.POST("/webhooks", webhookHandler.Create)
		admin.GET("/webhooks", webhookHandler.List)
		admin.DELETE("/webhooks/:id", webhookHandler.Delete)

		// 操作日志
		admin.GET("/audit-logs", auditHandler.List)
		admin.GET("/audit-logs/export", exportHandler.ExportAuditLogs)
	}
}
