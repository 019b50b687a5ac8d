package service

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"license-console/internal/model"
)

func TestResolveScope(t *testing.T) {
	db := setupTestDB(t)
	solo := createTestAdmin(t, db, "solo@example.com")
	owner := createTestAdmin(t, db, "owner@budaedc.com")
	team := createTestTeam(t, db, owner, 5)

	scope, err := ResolveScope(db, solo.ID)
	if err != nil {
		t.Fatalf("解析独立范围失败: %v", err)
	}
	if scope.Kind != ScopeSolo || scope.IsTeam() {
		t.Errorf("期望独立范围，得到 %+v", scope)
	}
	if scope.TeamIDPtr() != nil {
		t.Error("独立范围 TeamIDPtr 应为 nil")
	}

	scope, err = ResolveScope(db, owner.ID)
	if err != nil {
		t.Fatalf("解析团队范围失败: %v", err)
	}
	if !scope.IsTeam() || scope.TeamID != team.ID {
		t.Errorf("期望团队范围 %s，得到 %+v", team.ID, scope)
	}
	if ptr := scope.TeamIDPtr(); ptr == nil || *ptr != team.ID {
		t.Error("团队范围 TeamIDPtr 应指向团队")
	}
}

func TestAvailableAndAdmit(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestAdmin(t, db, "owner@budaedc.com")
	createTestTeam(t, db, owner, 2)

	scope, err := ResolveScope(db, owner.ID)
	if err != nil {
		t.Fatalf("解析范围失败: %v", err)
	}

	n, unlimited, err := Available(db, scope)
	if err != nil {
		t.Fatalf("查询可用配额失败: %v", err)
	}
	if unlimited || n != 2 {
		t.Errorf("期望 available=2，实际 n=%d unlimited=%v", n, unlimited)
	}

	if err := Admit(db, scope, 2); err != nil {
		t.Errorf("配额内准入应通过: %v", err)
	}
	if err := Admit(db, scope, 3); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("期望 ErrQuotaExceeded，得到 %v", err)
	}
	if err := Admit(db, scope, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("期望 ErrInvalidQuantity，得到 %v", err)
	}

	// 独立范围不设上限
	solo := createTestAdmin(t, db, "solo@example.com")
	soloScope, err := ResolveScope(db, solo.ID)
	if err != nil {
		t.Fatalf("解析范围失败: %v", err)
	}
	_, unlimited, err = Available(db, soloScope)
	if err != nil {
		t.Fatalf("查询可用配额失败: %v", err)
	}
	if !unlimited {
		t.Error("独立范围应为不设上限")
	}
	if err := Admit(db, soloScope, 10000); err != nil {
		t.Errorf("独立范围任意数量应准入: %v", err)
	}
}

func TestAdmitInsideInsertTransaction(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestAdmin(t, db, "owner@budaedc.com")
	team := createTestTeam(t, db, owner, 1)

	scope, err := ResolveScope(db, owner.ID)
	if err != nil {
		t.Fatalf("解析范围失败: %v", err)
	}

	insert := func(email string) error {
		return db.Transaction(func(tx *gorm.DB) error {
			// 准入检查和插入在同一事务：MySQL 下 Available 对团队行
			// 加 FOR UPDATE 锁，后到的事务在锁上排队，
			// 解锁后重新计数时能看到前一笔占用
			if err := Admit(tx, scope, 1); err != nil {
				return err
			}
			return tx.Create(&model.License{
				AdminID: owner.ID,
				TeamID:  &team.ID,
				Email:   email,
			}).Error
		})
	}

	if err := insert("first@example.com"); err != nil {
		t.Fatalf("首笔写入失败: %v", err)
	}
	if err := insert("second@example.com"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("配额用尽后准入应拒绝，得到 %v", err)
	}

	var count int64
	db.Model(&model.License{}).Where("team_id = ?", team.ID).Count(&count)
	if count != 1 {
		t.Errorf("期望 1 条授权，实际 %d", count)
	}
}
