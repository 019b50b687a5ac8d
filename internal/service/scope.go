package service

import (
	"errors"

	"license-console/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScopeKind 归属范围类型
type ScopeKind string

const (
	ScopeTeam ScopeKind = "team" // 团队范围：配额受 purchased_license_count 约束
	ScopeSolo ScopeKind = "solo" // 独立管理员范围：历史上不设上限
)

// Scope 授权与配额的归属范围：团队或独立管理员，二选一。
// 所有判定点（配额、可见性、邀请资格）都要对两种范围显式处理，
// 不允许用“team id 是否为空”之类的隐式判断。
type Scope struct {
	Kind    ScopeKind
	AdminID string // 发起操作的管理员
	TeamID  string // 仅团队范围有值
}

// IsTeam 是否团队范围
func (s Scope) IsTeam() bool {
	return s.Kind == ScopeTeam
}

// TeamIDPtr 团队范围返回 TeamID 指针，独立范围返回 nil（写入 License.TeamID 用）
func (s Scope) TeamIDPtr() *string {
	if s.Kind == ScopeTeam {
		id := s.TeamID
		return &id
	}
	return nil
}

// ResolveScope 解析管理员当前的归属范围：有成员记录则为团队范围，否则为独立范围
func ResolveScope(db *gorm.DB, adminID string) (Scope, error) {
	var member model.TeamMember
	err := db.Where("admin_id = ?", adminID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Scope{Kind: ScopeSolo, AdminID: adminID}, nil
		}
		return Scope{}, err
	}
	return Scope{Kind: ScopeTeam, AdminID: adminID, TeamID: member.TeamID}, nil
}

// scopedLicenses 当前范围内的授权查询
func scopedLicenses(db *gorm.DB, scope Scope) *gorm.DB {
	q := db.Model(&model.License{})
	switch scope.Kind {
	case ScopeTeam:
		return q.Where("team_id = ?", scope.TeamID)
	default:
		return q.Where("admin_id = ? AND team_id IS NULL", scope.AdminID)
	}
}

// CountAssigned 范围内已分配的授权数量
func CountAssigned(db *gorm.DB, scope Scope) (int64, error) {
	var count int64
	err := scopedLicenses(db, scope).Count(&count).Error
	return count, err
}

// Available 范围内剩余可分配数量。unlimited 为 true 时数量无意义。
//
// 独立管理员沿用线上行为不设上限（是否改为按其 purchased_license_count
// 限额是一个待确认的产品问题，改动只需调整此处的 solo 分支）。
func Available(db *gorm.DB, scope Scope) (n int64, unlimited bool, err error) {
	switch scope.Kind {
	case ScopeTeam:
		var team model.Team
		q := db
		// MySQL 的 REPEATABLE READ 下两个并发事务会各自快照计数、
		// 双双越过配额，锁定团队行让准入检查串行。
		// SQLite 写入本身串行，且不支持 FOR UPDATE 语法。
		if db.Dialector.Name() == "mysql" {
			q = db.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&team, "id = ?", scope.TeamID).Error; err != nil {
			return 0, false, err
		}
		assigned, err := CountAssigned(db, scope)
		if err != nil {
			return 0, false, err
		}
		return int64(team.PurchasedLicenseCount) - assigned, false, nil
	default:
		return 0, true, nil
	}
}

// Admit 准入检查：范围内是否还能再分配 requested 个授权。
// 必须在与插入相同的事务里调用，这样检查和写入是一个原子单元，
// 并发创建不会越过配额。
func Admit(tx *gorm.DB, scope Scope, requested int) error {
	if requested < 1 {
		return ErrInvalidQuantity
	}
	n, unlimited, err := Available(tx, scope)
	if err != nil {
		return err
	}
	if unlimited {
		return nil
	}
	if int64(requested) > n {
		return ErrQuotaExceeded
	}
	return nil
}
