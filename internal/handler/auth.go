package handler

import (
	"fmt"
	"time"

	"license-console/internal/config"
	"license-console/internal/middleware"
	"license-console/internal/model"
	"license-console/internal/pkg/crypto"
	"license-console/internal/pkg/response"
	"license-console/internal/pkg/utils"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// SignupRequest 注册请求
type SignupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup 管理员注册
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	email := utils.NormalizeEmail(req.Email)

	var existing model.Admin
	if err := model.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		response.Conflict(c, "邮箱已被注册")
		return
	}

	admin := model.Admin{
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.RoleAdminClaim,
	}
	if err := admin.SetPassword(req.Password); err != nil {
		response.ServerError(c, "密码加密失败")
		return
	}
	if err := model.DB.Create(&admin).Error; err != nil {
		response.ServerError(c, "创建账号失败")
		return
	}

	token, err := crypto.GenerateToken(admin.ID, admin.Email, string(admin.Role),
		config.Get().JWT.Secret, config.Get().JWT.ExpireHours)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	response.Created(c, "注册成功", gin.H{
		"token": token,
		"admin": gin.H{
			"id":         admin.ID,
			"email":      admin.Email,
			"first_name": admin.FirstName,
			"last_name":  admin.LastName,
			"role":       admin.Role,
		},
	})
}

// Login 管理员登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	email := utils.NormalizeEmail(req.Email)
	clientIP := c.ClientIP()
	loginLimiter := service.GetLoginLimiter()
	ipLimiter := service.GetIPLoginLimiter()

	// 检查 IP 是否被锁定
	if locked, remaining := ipLimiter.IsLocked(clientIP); locked {
		response.Error(c, 429, fmt.Sprintf("IP 已被临时锁定，请 %d 分钟后再试", int(remaining.Minutes())+1))
		return
	}

	// 检查账号是否被锁定
	if locked, remaining := loginLimiter.IsLocked(email); locked {
		response.Error(c, 429, fmt.Sprintf("账号已被临时锁定，请 %d 分钟后再试", int(remaining.Minutes())+1))
		return
	}

	var admin model.Admin
	if err := model.DB.Where("email = ?", email).First(&admin).Error; err != nil {
		loginLimiter.RecordFailure(email)
		ipLimiter.RecordFailure(clientIP)
		remainingAttempts := loginLimiter.GetRemainingAttempts(email)
		if remainingAttempts > 0 {
			response.Error(c, 401, fmt.Sprintf("邮箱或密码错误，还剩 %d 次尝试机会", remainingAttempts))
		} else {
			response.Error(c, 401, "邮箱或密码错误")
		}
		return
	}

	if !admin.CheckPassword(req.Password) {
		locked, lockDuration := loginLimiter.RecordFailure(email)
		ipLimiter.RecordFailure(clientIP)
		if locked {
			response.Error(c, 429, fmt.Sprintf("登录失败次数过多，账号已被锁定 %d 分钟", int(lockDuration.Minutes())))
		} else {
			remainingAttempts := loginLimiter.GetRemainingAttempts(email)
			response.Error(c, 401, fmt.Sprintf("邮箱或密码错误，还剩 %d 次尝试机会", remainingAttempts))
		}
		return
	}

	// 登录成功，清除失败记录
	loginLimiter.RecordSuccess(email)
	ipLimiter.RecordSuccess(clientIP)

	now := time.Now()
	model.DB.Model(&admin).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": clientIP,
	})

	token, err := crypto.GenerateToken(admin.ID, admin.Email, string(admin.Role),
		config.Get().JWT.Secret, config.Get().JWT.ExpireHours)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"admin": gin.H{
			"id":         admin.ID,
			"email":      admin.Email,
			"first_name": admin.FirstName,
			"last_name":  admin.LastName,
			"role":       admin.Role,
		},
	})
}

// GetProfile 获取当前管理员信息
func (h *AuthHandler) GetProfile(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	var admin model.Admin
	if err := model.DB.First(&admin, "id = ?", adminID).Error; err != nil {
		response.NotFound(c, "账号不存在")
		return
	}

	profile := gin.H{
		"id":            admin.ID,
		"email":         admin.Email,
		"first_name":    admin.FirstName,
		"last_name":     admin.LastName,
		"role":          admin.Role,
		"created_at":    admin.CreatedAt,
		"last_login_at": admin.LastLoginAt,
	}

	// 附带团队归属
	scope, err := service.ResolveScope(model.DB, admin.ID)
	if err == nil && scope.IsTeam() {
		var team model.Team
		if err := model.DB.First(&team, "id = ?", scope.TeamID).Error; err == nil {
			profile["team"] = gin.H{
				"id":     team.ID,
				"name":   team.Name,
				"domain": team.Domain,
			}
		}
	}

	response.Success(c, profile)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var admin model.Admin
	if err := model.DB.First(&admin, "id = ?", adminID).Error; err != nil {
		response.NotFound(c, "账号不存在")
		return
	}

	if !admin.CheckPassword(req.OldPassword) {
		response.Error(c, 400, "原密码错误")
		return
	}

	if err := admin.SetPassword(req.NewPassword); err != nil {
		response.ServerError(c, "密码加密失败")
		return
	}
	if err := model.DB.Save(&admin).Error; err != nil {
		response.ServerError(c, "修改密码失败")
		return
	}

	response.SuccessWithMessage(c, "密码修改成功", nil)
}
