package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"license-console/internal/model"

	"github.com/gin-gonic/gin"
)

// AuditMiddleware 审计日志中间件
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只记录写操作
		method := c.Request.Method
		path := c.Request.URL.Path
		if method == "GET" || strings.HasPrefix(path, "/health") {
			c.Next()
			return
		}

		startTime := time.Now()

		// 读取请求体
		var requestBody string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			requestBody = string(bodyBytes)
			// 重新设置请求体供后续使用
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

			// 脱敏处理密码字段
			if strings.Contains(requestBody, "password") {
				requestBody = "[REDACTED]"
			}
		}

		// 处理请求
		c.Next()

		duration := time.Since(startTime).Milliseconds()

		action, resource, resourceID := parseActionFromPath(method, path)

		// 团队成员的操作记在团队名下
		var teamID string
		var member model.TeamMember
		if err := model.DB.Where("admin_id = ?", GetAdminID(c)).First(&member).Error; err == nil {
			teamID = member.TeamID
		}

		entry := model.AuditLog{
			TeamID:       teamID,
			AdminID:      GetAdminID(c),
			AdminEmail:   GetAdminEmail(c),
			Action:       action,
			Resource:     resource,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			RequestBody:  truncateString(requestBody, 2000),
			ResponseCode: c.Writer.Status(),
			Duration:     duration,
		}

		// 异步写入日志
		go func() {
			model.DB.Create(&entry)
		}()
	}
}

// parseActionFromPath 从路由推断操作与资源
func parseActionFromPath(method, path string) (action, resource, resourceID string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	// 形如 api/licenses/:id/resend
	if len(segments) < 2 {
		return "", "", ""
	}

	switch {
	case strings.Contains(path, "/licenses"):
		resource = model.ResourceLicense
	case strings.Contains(path, "/invitations"):
		resource = model.ResourceInvitation
	case strings.Contains(path, "/members"):
		resource = model.ResourceTeamMember
	case strings.Contains(path, "/teams"):
		resource = model.ResourceTeam
	case strings.Contains(path, "/purchases"):
		resource = model.ResourcePurchase
	case strings.Contains(path, "/auth"):
		resource = model.ResourceAdmin
	}

	last := segments[len(segments)-1]
	switch {
	case last == "resend":
		action = model.ActionResend
	case last == "import":
		action = model.ActionImport
	case last == "export":
		action = model.ActionExport
	case last == "login":
		action = model.ActionLogin
	case method == "POST":
		action = model.ActionCreate
	case method == "PATCH" || method == "PUT":
		action = model.ActionUpdate
	case method == "DELETE":
		action = model.ActionDelete
	}

	// 路径中的 UUID 段视为资源 ID，取最后一个
	for _, seg := range segments {
		if len(seg) == 36 && strings.Count(seg, "-") == 4 {
			resourceID = seg
		}
	}

	return action, resource, resourceID
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
