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

// LicenseService 授权管理服务
type LicenseService struct {
	db    *gorm.DB
	email *EmailService
}

// NewLicenseService 创建授权管理服务
func NewLicenseService(db *gorm.DB) *LicenseService {
	return &LicenseService{db: db, email: NewEmailService()}
}

// LicenseStats 授权统计。Available 为 -1 表示不设上限（独立管理员）。
type LicenseStats struct {
	Purchased int64 `json:"purchased"`
	Assigned  int64 `json:"assigned"`
	Activated int64 `json:"activated"`
	Pending   int64 `json:"pending"`
	Available int64 `json:"available"`
}

// BatchResult 批量创建结果
type BatchResult struct {
	Success      int              `json:"success"`
	Failed       int              `json:"failed"`
	EmailsSent   int              `json:"emailsSent"`
	EmailsFailed int              `json:"emailsFailed"`
	Errors       []BatchError     `json:"errors,omitempty"`
	Licenses     []*model.License `json:"licenses,omitempty"`
}

// BatchError 批量创建中单条记录的失败原因
type BatchError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// brandFor 按管理员邮箱域名解析合作方品牌
func (s *LicenseService) brandFor(admin *model.Admin) config.BrandConfig {
	return config.Get().App.BrandForDomain(admin.EmailDomain())
}

// Create 创建单个授权并发送激活邀请邮件。
// 配额检查与插入在同一事务内完成；邮件发送在事务提交之后，
// 失败只记录状态，不回滚已创建的授权。
func (s *LicenseService) Create(adminID, email string) (*model.License, EmailResult, error) {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, EmailResult{}, ErrInvalidEmail
	}

	var admin model.Admin
	if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
		return nil, EmailResult{}, fmt.Errorf("查询管理员失败: %w", err)
	}

	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, EmailResult{}, err
	}

	license := &model.License{
		AdminID:     adminID,
		TeamID:      scope.TeamIDPtr(),
		Email:       email,
		PerformedBy: adminID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := scopedLicenses(tx, scope).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateLicense
		}
		if err := Admit(tx, scope, 1); err != nil {
			return err
		}
		return tx.Create(license).Error
	})
	if err != nil {
		return nil, EmailResult{}, err
	}

	// 邮件在事务外发送，失败不影响已落库的授权
	result := s.email.SendLicenseActivation(license, admin.FullName(), s.brandFor(&admin))
	if result.Success {
		s.db.Model(license).Update("message_id", result.MessageID)
		license.MessageID = result.MessageID
	}

	go NewWebhookService(s.db).Dispatch(scope, EventLicenseCreated, license)

	return license, result, nil
}

// CreateBatch 批量创建授权。配额不足时整批拒绝；
// 单条的格式错误或重复只使该条失败，其余继续。
func (s *LicenseService) CreateBatch(adminID string, emails []string) (*BatchResult, error) {
	if len(emails) == 0 {
		return nil, ErrInvalidQuantity
	}

	var admin model.Admin
	if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
		return nil, fmt.Errorf("查询管理员失败: %w", err)
	}

	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, err
	}

	// 去重 + 规范化，保持首次出现的顺序
	seen := make(map[string]bool)
	result := &BatchResult{}
	var candidates []string
	for _, raw := range emails {
		email := utils.NormalizeEmail(raw)
		if !utils.IsValidEmail(email) {
			result.Failed++
			result.Errors = append(result.Errors, BatchError{Email: raw, Error: ErrInvalidEmail.Error()})
			continue
		}
		if seen[email] {
			result.Failed++
			result.Errors = append(result.Errors, BatchError{Email: email, Error: ErrDuplicateLicense.Error()})
			continue
		}
		seen[email] = true
		candidates = append(candidates, email)
	}

	var created []*model.License
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 整批配额检查：按原始提交数量判定，不足则整批拒绝。
		// 单条格式错误或批内重复不缩小判定口径。
		if err := Admit(tx, scope, len(emails)); err != nil {
			return err
		}
		for _, email := range candidates {
			var count int64
			if err := scopedLicenses(tx, scope).Where("email = ?", email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				result.Failed++
				result.Errors = append(result.Errors, BatchError{Email: email, Error: ErrDuplicateLicense.Error()})
				continue
			}
			license := &model.License{
				AdminID:     adminID,
				TeamID:      scope.TeamIDPtr(),
				Email:       email,
				PerformedBy: adminID,
			}
			if err := tx.Create(license).Error; err != nil {
				return err
			}
			created = append(created, license)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	brand := s.brandFor(&admin)
	webhooks := NewWebhookService(s.db)
	for _, license := range created {
		result.Success++
		r := s.email.SendLicenseActivation(license, admin.FullName(), brand)
		if r.Success {
			result.EmailsSent++
			s.db.Model(license).Update("message_id", r.MessageID)
			license.MessageID = r.MessageID
		} else {
			result.EmailsFailed++
		}
		go webhooks.Dispatch(scope, EventLicenseCreated, license)
	}
	result.Licenses = created

	return result, nil
}

// List 当前范围内的授权列表，按创建时间倒序
func (s *LicenseService) List(adminID string) ([]model.License, error) {
	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, err
	}
	var licenses []model.License
	err = scopedLicenses(s.db, scope).Order("created_at DESC").Find(&licenses).Error
	return licenses, err
}

// Get 按 ID 查询当前范围内的授权
func (s *LicenseService) Get(adminID, licenseID string) (*model.License, error) {
	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, err
	}
	var license model.License
	err = scopedLicenses(s.db, scope).Where("id = ?", licenseID).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &license, nil
}

// Remove 删除授权（释放席位）。范围外的 ID 视为不存在。
func (s *LicenseService) Remove(adminID, licenseID string) error {
	license, err := s.Get(adminID, licenseID)
	if err != nil {
		return err
	}
	// 物理删除：邮箱唯一索引含软删行，留墓碑会挡住同邮箱重新分配
	if err := s.db.Unscoped().Delete(license).Error; err != nil {
		return err
	}

	scope, err := ResolveScope(s.db, adminID)
	if err == nil {
		go NewWebhookService(s.db).Dispatch(scope, EventLicenseRemoved, license)
	}
	return nil
}

// UpdateEmail 修改未激活授权的邮箱并重发激活邀请。
// 已激活的授权属于最终用户，不允许改绑。
func (s *LicenseService) UpdateEmail(adminID, licenseID, newEmail string) (*model.License, EmailResult, error) {
	newEmail = utils.NormalizeEmail(newEmail)
	if !utils.IsValidEmail(newEmail) {
		return nil, EmailResult{}, ErrInvalidEmail
	}

	license, err := s.Get(adminID, licenseID)
	if err != nil {
		return nil, EmailResult{}, err
	}
	if license.IsActivated {
		return nil, EmailResult{}, ErrAlreadyActivated
	}

	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, EmailResult{}, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := scopedLicenses(tx, scope).
			Where("email = ? AND id <> ?", newEmail, license.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateLicense
		}
		return tx.Model(license).Update("email", newEmail).Error
	})
	if err != nil {
		return nil, EmailResult{}, err
	}
	license.Email = newEmail

	var admin model.Admin
	if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
		return nil, EmailResult{}, err
	}
	result := s.email.SendLicenseActivation(license, admin.FullName(), s.brandFor(&admin))
	if result.Success {
		s.db.Model(license).Update("message_id", result.MessageID)
		license.MessageID = result.MessageID
	}

	return license, result, nil
}

// Resend 重发激活邀请邮件。已激活的授权不再发送。
func (s *LicenseService) Resend(adminID, licenseID string) (EmailResult, error) {
	license, err := s.Get(adminID, licenseID)
	if err != nil {
		return EmailResult{}, err
	}
	if license.IsActivated {
		return EmailResult{}, ErrAlreadyActivated
	}

	var admin model.Admin
	if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
		return EmailResult{}, err
	}

	result := s.email.SendLicenseActivation(license, admin.FullName(), s.brandFor(&admin))
	if result.Success {
		s.db.Model(license).Update("message_id", result.MessageID)
	}
	return result, nil
}

// Stats 当前范围内的授权统计
func (s *LicenseService) Stats(adminID string) (*LicenseStats, error) {
	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, err
	}

	stats := &LicenseStats{}

	if err := scopedLicenses(s.db, scope).Count(&stats.Assigned).Error; err != nil {
		return nil, err
	}
	if err := scopedLicenses(s.db, scope).Where("is_activated = ?", true).Count(&stats.Activated).Error; err != nil {
		return nil, err
	}
	stats.Pending = stats.Assigned - stats.Activated

	if scope.IsTeam() {
		var team model.Team
		if err := s.db.First(&team, "id = ?", scope.TeamID).Error; err != nil {
			return nil, err
		}
		stats.Purchased = int64(team.PurchasedLicenseCount)
		stats.Available = stats.Purchased - stats.Assigned
	} else {
		var admin model.Admin
		if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
			return nil, err
		}
		stats.Purchased = int64(admin.PurchasedLicenseCount)
		stats.Available = -1 // 不设上限
	}

	return stats, nil
}

// Activate 终端用户通过激活链接完成激活，补全业务信息。
// 重复激活直接返回冲突，不覆盖首次激活的数据。
func (s *LicenseService) Activate(licenseID, businessName, businessType string) (*model.License, error) {
	var license model.License
	if err := s.db.First(&license, "id = ?", licenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if license.IsActivated {
		return nil, ErrAlreadyActivated
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_activated":  true,
		"activated_at":  now,
		"business_name": businessName,
		"business_type": businessType,
	}
	if err := s.db.Model(&license).Updates(updates).Error; err != nil {
		return nil, err
	}
	license.IsActivated = true
	license.ActivatedAt = &now
	license.BusinessName = businessName
	license.BusinessType = businessType

	scope := Scope{Kind: ScopeSolo, AdminID: license.AdminID}
	if license.TeamID != nil {
		scope = Scope{Kind: ScopeTeam, AdminID: license.AdminID, TeamID: *license.TeamID}
	}
	go NewWebhookService(s.db).Dispatch(scope, EventLicenseActivated, &license)

	return &license, nil
}

// EmailStatuses 批量查询激活邮件的投递状态。
// SMTP 没有投递方回执，这里以本地记录近似：有 MessageID 视为已发出。
func (s *LicenseService) EmailStatuses(adminID string, licenseIDs []string) (map[string]string, error) {
	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, err
	}
	var licenses []model.License
	if err := scopedLicenses(s.db, scope).Where("id IN ?", licenseIDs).Find(&licenses).Error; err != nil {
		return nil, err
	}
	statuses := make(map[string]string, len(licenses))
	for _, l := range licenses {
		switch {
		case l.IsActivated:
			statuses[l.ID] = "activated"
		case l.MessageID != "":
			statuses[l.ID] = "sent"
		default:
			statuses[l.ID] = "failed"
		}
	}
	return statuses, nil
}
