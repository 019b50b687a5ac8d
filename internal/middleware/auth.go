package middleware

import (
	"strings"

	"license-console/internal/config"
	"license-console/internal/model"
	"license-console/internal/pkg/crypto"
	"license-console/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT 认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			// Bearer token
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(c, "认证格式错误")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			// 浏览器跳转类接口（支付回跳）无法携带请求头，允许 query 传递
			token = c.Query("token")
		}

		if token == "" {
			response.Unauthorized(c, "缺少认证信息，请重新登录")
			c.Abort()
			return
		}
		claims, err := crypto.ParseToken(token, config.Get().JWT.Secret)
		if err != nil {
			response.Unauthorized(c, "无效的认证信息，请重新登录")
			c.Abort()
			return
		}

		// 将用户信息存入上下文
		c.Set("admin_id", claims.AdminID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// AdminMiddleware 管理员角色声明检查 - 本系统只对 admin 角色开放
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != string(model.RoleAdminClaim) {
			response.Forbidden(c, "需要管理员账号")
			c.Abort()
			return
		}

		// 账号必须仍然存在
		var admin model.Admin
		if err := model.DB.First(&admin, "id = ?", GetAdminID(c)).Error; err != nil {
			response.Forbidden(c, "管理员账号不存在")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetAdminID 从上下文获取管理员 ID
func GetAdminID(c *gin.Context) string {
	adminID, _ := c.Get("admin_id")
	if id, ok := adminID.(string); ok {
		return id
	}
	return ""
}

// GetAdminEmail 从上下文获取管理员邮箱
func GetAdminEmail(c *gin.Context) string {
	email, _ := c.Get("email")
	if e, ok := email.(string); ok {
		return e
	}
	return ""
}

// GetAdminRole 从上下文获取角色声明
func GetAdminRole(c *gin.Context) string {
	role, _ := c.Get("role")
	if r, ok := role.(string); ok {
		return r
	}
	return ""
}
