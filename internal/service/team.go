package service

import (
	"errors"
	"fmt"
	"time"

	"license-console/internal/config"
	"license-console/internal/model"
	"license-console/internal/pkg/utils"

	"gorm.io/gorm"
)

// TeamService 团队管理服务
type TeamService struct {
	db    *gorm.DB
	email *EmailService
}

// NewTeamService 创建团队管理服务
func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db, email: NewEmailService()}
}

// TeamOverview 团队详情（/api/teams/current 返回）
type TeamOverview struct {
	Team        *model.Team            `json:"team"`
	Role        model.TeamMemberRole   `json:"role"`
	Members     []model.TeamMember     `json:"members"`
	Invitations []model.TeamInvitation `json:"invitations"`
}

// Create 创建团队。创建者邮箱域名需在白名单内，且当前未加入任何团队。
// 创建者的存量独立授权与已购配额一并迁入团队。
func (s *TeamService) Create(adminID, name string) (*model.Team, error) {
	var admin model.Admin
	if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
		return nil, fmt.Errorf("查询管理员失败: %w", err)
	}

	var existing model.TeamMember
	err := s.db.Where("admin_id = ?", adminID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyInTeam
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	domain := admin.EmailDomain()
	app := &config.Get().App
	if !app.DomainAllowed(domain) {
		return nil, ErrDomainNotAllowed
	}

	if name == "" {
		brand := app.BrandForDomain(domain)
		name = fmt.Sprintf("%s's %s Team", admin.FirstName, brand.Label)
	}

	team := &model.Team{
		Name:    name,
		Domain:  domain,
		OwnerID: adminID,
		// 已购配额随创建者迁入团队
		PurchasedLicenseCount: admin.PurchasedLicenseCount,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		member := &model.TeamMember{
			TeamID:  team.ID,
			AdminID: adminID,
			Role:    model.RoleOwner,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		// 存量独立授权迁入团队
		if err := tx.Model(&model.License{}).
			Where("admin_id = ? AND team_id IS NULL", adminID).
			Updates(map[string]interface{}{"team_id": team.ID, "performed_by": adminID}).Error; err != nil {
			return err
		}
		// 配额已随团队记账，个人配额清零避免双记
		return tx.Model(&admin).Update("purchased_license_count", 0).Error
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

// Current 当前团队详情。未加入团队返回 ErrNotFound。
func (s *TeamService) Current(adminID string) (*TeamOverview, error) {
	var member model.TeamMember
	err := s.db.Where("admin_id = ?", adminID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var team model.Team
	if err := s.db.First(&team, "id = ?", member.TeamID).Error; err != nil {
		return nil, err
	}

	var members []model.TeamMember
	if err := s.db.Preload("Admin").Where("team_id = ?", team.ID).
		Order("joined_at ASC").Find(&members).Error; err != nil {
		return nil, err
	}

	invitations, err := s.PendingInvitations(team.ID)
	if err != nil {
		return nil, err
	}

	return &TeamOverview{
		Team:        &team,
		Role:        member.Role,
		Members:     members,
		Invitations: invitations,
	}, nil
}

// PendingInvitations 团队的待处理邀请（读取时惰性标记过期）
func (s *TeamService) PendingInvitations(teamID string) ([]model.TeamInvitation, error) {
	var all []model.TeamInvitation
	if err := s.db.Where("team_id = ? AND status = ?", teamID, model.InvitationStatusPending).
		Order("created_at DESC").Find(&all).Error; err != nil {
		return nil, err
	}

	pending := make([]model.TeamInvitation, 0, len(all))
	for i := range all {
		inv := &all[i]
		if inv.IsExpired() {
			s.db.Model(inv).Update("status", model.InvitationStatusExpired)
			continue
		}
		pending = append(pending, *inv)
	}
	return pending, nil
}

// membership 查询管理员在团队中的成员记录
func (s *TeamService) membership(adminID string) (*model.TeamMember, error) {
	var member model.TeamMember
	err := s.db.Where("admin_id = ?", adminID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// Invite 邀请成员加入团队。仅 owner/admin 可邀请，
// 且被邀邮箱域名必须与团队域名一致。
func (s *TeamService) Invite(adminID, email string, role model.TeamMemberRole) (*model.TeamInvitation, EmailResult, error) {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, EmailResult{}, ErrInvalidEmail
	}
	if role != model.RoleAdmin && role != model.RoleMember {
		role = model.RoleMember
	}

	member, err := s.membership(adminID)
	if err != nil {
		return nil, EmailResult{}, err
	}
	if !member.CanInvite() {
		return nil, EmailResult{}, ErrForbidden
	}

	var team model.Team
	if err := s.db.First(&team, "id = ?", member.TeamID).Error; err != nil {
		return nil, EmailResult{}, err
	}

	if utils.EmailDomain(email) != team.Domain {
		return nil, EmailResult{}, ErrDomainMismatch
	}

	// 已是成员？
	var existingAdmin model.Admin
	if err := s.db.Where("email = ?", email).First(&existingAdmin).Error; err == nil {
		var count int64
		if err := s.db.Model(&model.TeamMember{}).
			Where("team_id = ? AND admin_id = ?", team.ID, existingAdmin.ID).
			Count(&count).Error; err != nil {
			return nil, EmailResult{}, err
		}
		if count > 0 {
			return nil, EmailResult{}, ErrAlreadyMember
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, EmailResult{}, err
	}

	// 已有未过期的待处理邀请？
	var pending model.TeamInvitation
	err = s.db.Where("team_id = ? AND email = ? AND status = ?",
		team.ID, email, model.InvitationStatusPending).First(&pending).Error
	if err == nil {
		if !pending.IsExpired() {
			return nil, EmailResult{}, ErrDuplicateInvite
		}
		s.db.Model(&pending).Update("status", model.InvitationStatusExpired)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, EmailResult{}, err
	}

	invitation := &model.TeamInvitation{
		TeamID:    team.ID,
		Email:     email,
		Role:      role,
		Token:     utils.GenerateInviteToken(),
		InvitedBy: adminID,
		Status:    model.InvitationStatusPending,
		ExpiresAt: time.Now().Add(model.InvitationTTL),
	}
	if err := s.db.Create(invitation).Error; err != nil {
		return nil, EmailResult{}, err
	}

	var inviter model.Admin
	if err := s.db.First(&inviter, "id = ?", adminID).Error; err != nil {
		return nil, EmailResult{}, err
	}
	brand := config.Get().App.BrandForDomain(team.Domain)
	result := s.email.SendTeamInvitation(invitation, inviter.FullName(), team.Name, brand)
	if result.Success {
		s.db.Model(invitation).Update("message_id", result.MessageID)
		invitation.MessageID = result.MessageID
	}

	return invitation, result, nil
}

// CancelInvitation 取消待处理的邀请。仅本团队的 owner/admin 可操作。
func (s *TeamService) CancelInvitation(adminID, invitationID string) error {
	member, err := s.membership(adminID)
	if err != nil {
		return err
	}
	if !member.CanInvite() {
		return ErrForbidden
	}

	var invitation model.TeamInvitation
	err = s.db.Where("id = ? AND team_id = ?", invitationID, member.TeamID).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if invitation.Status != model.InvitationStatusPending {
		return ErrInvitationHandled
	}

	return s.db.Model(&invitation).Update("status", model.InvitationStatusCancelled).Error
}

// FindInvitationByToken 按 Token 查询邀请（接受页展示用）
func (s *TeamService) FindInvitationByToken(token string) (*model.TeamInvitation, error) {
	var invitation model.TeamInvitation
	err := s.db.Preload("Team").Where("token = ?", token).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

// AcceptInvitation 接受邀请加入团队。接受者的存量独立授权迁入团队。
func (s *TeamService) AcceptInvitation(token string, admin *model.Admin) (*model.Team, error) {
	invitation, err := s.FindInvitationByToken(token)
	if err != nil {
		return nil, err
	}
	if invitation.Status != model.InvitationStatusPending {
		return nil, ErrInvitationHandled
	}
	if invitation.IsExpired() {
		s.db.Model(invitation).Update("status", model.InvitationStatusExpired)
		return nil, ErrInvitationExpired
	}
	if utils.NormalizeEmail(admin.Email) != invitation.Email {
		return nil, ErrForbidden
	}

	var count int64
	if err := s.db.Model(&model.TeamMember{}).Where("admin_id = ?", admin.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyInTeam
	}

	var team model.Team
	if err := s.db.First(&team, "id = ?", invitation.TeamID).Error; err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		member := &model.TeamMember{
			TeamID:  team.ID,
			AdminID: admin.ID,
			Role:    invitation.Role,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		if err := tx.Model(invitation).Update("status", model.InvitationStatusAccepted).Error; err != nil {
			return err
		}
		// 存量独立授权迁入团队
		return tx.Model(&model.License{}).
			Where("admin_id = ? AND team_id IS NULL", admin.ID).
			Updates(map[string]interface{}{"team_id": team.ID, "performed_by": admin.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	scope := Scope{Kind: ScopeTeam, AdminID: admin.ID, TeamID: team.ID}
	go NewWebhookService(s.db).Dispatch(scope, EventMemberJoined, map[string]interface{}{
		"team_id":  team.ID,
		"admin_id": admin.ID,
		"email":    admin.Email,
		"role":     invitation.Role,
	})

	return &team, nil
}

// UpdateMemberRole 变更成员角色。仅 owner 可操作，owner 自身不可变更。
func (s *TeamService) UpdateMemberRole(actorID, memberID string, role model.TeamMemberRole) error {
	if role != model.RoleAdmin && role != model.RoleMember {
		return ErrForbidden
	}

	actor, err := s.membership(actorID)
	if err != nil {
		return err
	}
	if !actor.IsOwner() {
		return ErrForbidden
	}

	var target model.TeamMember
	err = s.db.Where("id = ? AND team_id = ?", memberID, actor.TeamID).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if target.IsOwner() {
		return ErrCannotDemoteOwner
	}

	return s.db.Model(&target).Update("role", role).Error
}

// RemoveMember 移除成员。仅 owner 可操作，owner 自身不可移除。
// 成员创建的团队授权保留在团队内。
func (s *TeamService) RemoveMember(actorID, memberID string) error {
	actor, err := s.membership(actorID)
	if err != nil {
		return err
	}
	if !actor.IsOwner() {
		return ErrForbidden
	}

	var target model.TeamMember
	err = s.db.Where("id = ? AND team_id = ?", memberID, actor.TeamID).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if target.IsOwner() {
		return ErrCannotRemoveOwner
	}

	// 物理删除：成员唯一索引含软删行，留墓碑会挡住重新加入
	return s.db.Unscoped().Delete(&target).Error
}

// Rename 重命名团队。仅 owner 可操作，域名不可变更。
func (s *TeamService) Rename(actorID, name string) (*model.Team, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	actor, err := s.membership(actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsOwner() {
		return nil, ErrForbidden
	}

	var team model.Team
	if err := s.db.First(&team, "id = ?", actor.TeamID).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&team).Update("name", name).Error; err != nil {
		return nil, err
	}
	team.Name = name
	return &team, nil
}
