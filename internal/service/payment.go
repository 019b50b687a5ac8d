package service

import (
	"errors"
	"fmt"

	"license-console/internal/model"

	"gorm.io/gorm"
)

// PaymentService 购买对账服务
type PaymentService struct {
	db *gorm.DB
}

// NewPaymentService 创建购买对账服务
func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

// PurchaseResult 入账结果
type PurchaseResult struct {
	LicensesAdded int  `json:"licenses_added"`
	TotalLicenses int  `json:"total_licenses"`
	AlreadyDone   bool `json:"-"` // 重放请求，未重复入账
}

// Complete 将支付确认入账到当前范围的已购配额。
// 以支付会话标识做幂等：重放返回首次入账的结果，不重复加额。
func (s *PaymentService) Complete(adminID, sessionID string, licenseCount int) (*PurchaseResult, error) {
	if licenseCount < 1 {
		return nil, ErrInvalidQuantity
	}
	if sessionID == "" {
		return nil, fmt.Errorf("缺少支付会话标识")
	}

	// 重放检测
	var existing model.PurchaseRecord
	err := s.db.Where("session_id = ?", sessionID).First(&existing).Error
	if err == nil {
		return &PurchaseResult{
			LicensesAdded: existing.LicenseCount,
			TotalLicenses: existing.TotalAfter,
			AlreadyDone:   true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	scope, err := ResolveScope(s.db, adminID)
	if err != nil {
		return nil, err
	}

	result := &PurchaseResult{LicensesAdded: licenseCount}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if scope.IsTeam() {
			var team model.Team
			if err := tx.First(&team, "id = ?", scope.TeamID).Error; err != nil {
				return err
			}
			newTotal := team.PurchasedLicenseCount + licenseCount
			if err := tx.Model(&team).Update("purchased_license_count", newTotal).Error; err != nil {
				return err
			}
			result.TotalLicenses = newTotal
		} else {
			var admin model.Admin
			if err := tx.First(&admin, "id = ?", adminID).Error; err != nil {
				return err
			}
			newTotal := admin.PurchasedLicenseCount + licenseCount
			if err := tx.Model(&admin).Updates(map[string]interface{}{
				"purchased_license_count":        newTotal,
				"active_purchased_license_count": admin.ActivePurchasedLicenseCount + licenseCount,
			}).Error; err != nil {
				return err
			}
			result.TotalLicenses = newTotal
		}

		record := &model.PurchaseRecord{
			SessionID:    sessionID,
			AdminID:      adminID,
			TeamID:       scope.TeamIDPtr(),
			LicenseCount: licenseCount,
			TotalAfter:   result.TotalLicenses,
		}
		// 唯一索引兜底：并发重放时只有一个事务能写入记录
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	go NewWebhookService(s.db).Dispatch(scope, EventPurchaseApplied, map[string]interface{}{
		"session_id":     sessionID,
		"licenses_added": result.LicensesAdded,
		"total_licenses": result.TotalLicenses,
	})

	return result, nil
}
