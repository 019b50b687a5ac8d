package handler

import (
	"license-console/internal/middleware"
	"license-console/internal/model"
	"license-console/internal/pkg/response"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	teams *service.TeamService
}

func NewTeamHandler() *TeamHandler {
	return &TeamHandler{teams: service.NewTeamService(model.DB)}
}

// CreateTeamRequest 创建团队请求
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// Create 创建团队。名称可省略，默认 "{名字}'s {品牌} Team"。
func (h *TeamHandler) Create(c *gin.Context) {
	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	team, err := h.teams.Create(adminID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "团队已创建", gin.H{"team": gin.H{
		"id":     team.ID,
		"name":   team.Name,
		"domain": team.Domain,
	}})
}

// Current 当前团队详情（成员、待处理邀请）
func (h *TeamHandler) Current(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	overview, err := h.teams.Current(adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, overview)
}

// RenameTeamRequest 重命名请求
type RenameTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename 重命名团队（仅 owner）
func (h *TeamHandler) Rename(c *gin.Context) {
	var req RenameTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	team, err := h.teams.Rename(adminID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "团队已重命名", gin.H{"team": team})
}

// InviteRequest 邀请成员请求
type InviteRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role"`
}

// Invite 邀请成员加入团队
func (h *TeamHandler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	invitation, emailResult, err := h.teams.Invite(adminID, req.Email, model.TeamMemberRole(req.Role))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "邀请已发送", gin.H{
		"invitation": invitation,
		"email":      emailResult,
	})
}

// CancelInvitation 取消待处理的邀请
func (h *TeamHandler) CancelInvitation(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	if err := h.teams.CancelInvitation(adminID, c.Param("invitation_id")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "邀请已取消", nil)
}

// InvitationInfo 按 Token 查询邀请详情（接受页展示用，无需登录）
func (h *TeamHandler) InvitationInfo(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "缺少邀请 Token")
		return
	}

	invitation, err := h.teams.FindInvitationByToken(token)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	info := gin.H{
		"email":      invitation.Email,
		"role":       invitation.Role,
		"status":     invitation.EffectiveStatus(),
		"expires_at": invitation.ExpiresAt,
	}
	if invitation.Team != nil {
		info["team"] = gin.H{
			"id":     invitation.Team.ID,
			"name":   invitation.Team.Name,
			"domain": invitation.Team.Domain,
		}
	}
	response.Success(c, info)
}

// AcceptInvitationRequest 接受邀请请求
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// AcceptInvitation 当前登录管理员接受邀请加入团队
func (h *TeamHandler) AcceptInvitation(c *gin.Context) {
	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	var admin model.Admin
	if err := model.DB.First(&admin, "id = ?", adminID).Error; err != nil {
		response.NotFound(c, "账号不存在")
		return
	}

	team, err := h.teams.AcceptInvitation(req.Token, &admin)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已加入团队", gin.H{"team": gin.H{
		"id":     team.ID,
		"name":   team.Name,
		"domain": team.Domain,
	}})
}

// UpdateMemberRequest 变更成员角色请求
type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

// UpdateMember 变更成员角色（仅 owner）
func (h *TeamHandler) UpdateMember(c *gin.Context) {
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	adminID := middleware.GetAdminID(c)
	if err := h.teams.UpdateMemberRole(adminID, c.Param("member_id"), model.TeamMemberRole(req.Role)); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "角色已更新", nil)
}

// RemoveMember 移除成员（仅 owner）
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	if err := h.teams.RemoveMember(adminID, c.Param("member_id")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, "成员已移除", nil)
}
