package service

import (
	"errors"
	"fmt"
	"testing"

	"license-console/internal/model"
)

func TestCreateLicenseNormalizesEmail(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	license, _, err := svc.Create(admin.ID, "  User@Example.COM ")
	if err != nil {
		t.Fatalf("创建授权失败: %v", err)
	}
	if license.Email != "user@example.com" {
		t.Errorf("邮箱未规范化: %q", license.Email)
	}
	if license.IsActivated {
		t.Error("新授权不应处于激活状态")
	}
}

func TestCreateLicenseInvalidEmail(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	if _, _, err := svc.Create(admin.ID, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("期望 ErrInvalidEmail，得到 %v", err)
	}
}

func TestCreateLicenseDuplicateCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	if _, _, err := svc.Create(admin.ID, "user@example.com"); err != nil {
		t.Fatalf("首次创建失败: %v", err)
	}
	if _, _, err := svc.Create(admin.ID, "USER@EXAMPLE.COM"); !errors.Is(err, ErrDuplicateLicense) {
		t.Errorf("期望 ErrDuplicateLicense，得到 %v", err)
	}

	var count int64
	db.Model(&model.License{}).Count(&count)
	if count != 1 {
		t.Errorf("期望 1 条授权，实际 %d", count)
	}
}

func TestBatchRejectedWhenOverQuota(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	createTestTeam(t, db, admin, 5)
	svc := NewLicenseService(db)

	// 已分配 3 个
	for i := 0; i < 3; i++ {
		if _, _, err := svc.Create(admin.ID, fmt.Sprintf("user%d@example.com", i)); err != nil {
			t.Fatalf("预置授权失败: %v", err)
		}
	}

	// 剩余 2，批量 3 应整批拒绝
	_, err := svc.CreateBatch(admin.ID, []string{"a@example.com", "b@example.com", "c@example.com"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("期望 ErrQuotaExceeded，得到 %v", err)
	}

	var count int64
	db.Model(&model.License{}).Count(&count)
	if count != 3 {
		t.Errorf("超配额批量不应创建任何授权，实际 %d 条", count)
	}
}

func TestBatchQuotaCountsRawEmails(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	createTestTeam(t, db, admin, 2)
	svc := NewLicenseService(db)

	// 提交 3 条（含 1 条格式错误），配额 2。
	// 判定按提交数量，格式错误不缩小口径，整批拒绝。
	_, err := svc.CreateBatch(admin.ID, []string{"not-an-email", "a@example.com", "b@example.com"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("期望 ErrQuotaExceeded，得到 %v", err)
	}

	var count int64
	db.Model(&model.License{}).Count(&count)
	if count != 0 {
		t.Errorf("超配额批量不应创建任何授权，实际 %d 条", count)
	}
}

func TestBatchWithinQuota(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	createTestTeam(t, db, admin, 5)
	svc := NewLicenseService(db)

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Create(admin.ID, fmt.Sprintf("user%d@example.com", i)); err != nil {
			t.Fatalf("预置授权失败: %v", err)
		}
	}

	result, err := svc.CreateBatch(admin.ID, []string{"a@example.com", "b@example.com"})
	if err != nil {
		t.Fatalf("批量创建失败: %v", err)
	}
	if result.Success != 2 || result.Failed != 0 {
		t.Errorf("期望 success=2 failed=0，实际 success=%d failed=%d", result.Success, result.Failed)
	}

	stats, err := svc.Stats(admin.ID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.Assigned != 5 || stats.Available != 0 {
		t.Errorf("期望 assigned=5 available=0，实际 assigned=%d available=%d", stats.Assigned, stats.Available)
	}
}

func TestBatchPartialFailureContinues(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	if _, _, err := svc.Create(admin.ID, "dup@example.com"); err != nil {
		t.Fatalf("预置授权失败: %v", err)
	}

	result, err := svc.CreateBatch(admin.ID, []string{"dup@example.com", "bademail", "ok@example.com"})
	if err != nil {
		t.Fatalf("批量创建失败: %v", err)
	}
	if result.Success != 1 {
		t.Errorf("期望 1 条成功，实际 %d", result.Success)
	}
	if result.Failed != 2 {
		t.Errorf("期望 2 条失败，实际 %d", result.Failed)
	}
	if len(result.Errors) != 2 {
		t.Errorf("期望 2 条错误明细，实际 %d", len(result.Errors))
	}
}

func TestSoloAdminUnlimitedQuota(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "solo@example.com")
	svc := NewLicenseService(db)

	// 未购买任何配额也可以创建
	for i := 0; i < 10; i++ {
		if _, _, err := svc.Create(admin.ID, fmt.Sprintf("user%d@example.com", i)); err != nil {
			t.Fatalf("独立管理员创建授权失败: %v", err)
		}
	}

	stats, err := svc.Stats(admin.ID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.Available != -1 {
		t.Errorf("独立管理员 available 应为 -1，实际 %d", stats.Available)
	}
	if stats.Assigned != 10 {
		t.Errorf("期望 assigned=10，实际 %d", stats.Assigned)
	}
}

func TestRemoveFreesSeat(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	createTestTeam(t, db, admin, 1)
	svc := NewLicenseService(db)

	license, _, err := svc.Create(admin.ID, "a@example.com")
	if err != nil {
		t.Fatalf("创建授权失败: %v", err)
	}

	if _, _, err := svc.Create(admin.ID, "b@example.com"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("配额用尽应拒绝，得到 %v", err)
	}

	if err := svc.Remove(admin.ID, license.ID); err != nil {
		t.Fatalf("删除授权失败: %v", err)
	}

	if _, _, err := svc.Create(admin.ID, "b@example.com"); err != nil {
		t.Errorf("删除后席位应释放，创建失败: %v", err)
	}
}

func TestUpdateEmailRejectsActivated(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	license, _, err := svc.Create(admin.ID, "a@example.com")
	if err != nil {
		t.Fatalf("创建授权失败: %v", err)
	}
	if _, err := svc.Activate(license.ID, "Acme LLC", "retail"); err != nil {
		t.Fatalf("激活失败: %v", err)
	}

	if _, _, err := svc.UpdateEmail(admin.ID, license.ID, "new@example.com"); !errors.Is(err, ErrAlreadyActivated) {
		t.Errorf("期望 ErrAlreadyActivated，得到 %v", err)
	}

	var saved model.License
	db.First(&saved, "id = ?", license.ID)
	if saved.Email != "a@example.com" {
		t.Errorf("已激活授权的邮箱不应变更: %q", saved.Email)
	}
}

func TestUpdateEmailResendsInvite(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	license, _, err := svc.Create(admin.ID, "a@example.com")
	if err != nil {
		t.Fatalf("创建授权失败: %v", err)
	}

	updated, _, err := svc.UpdateEmail(admin.ID, license.ID, "B@Example.com")
	if err != nil {
		t.Fatalf("更新邮箱失败: %v", err)
	}
	if updated.Email != "b@example.com" {
		t.Errorf("邮箱未规范化更新: %q", updated.Email)
	}
}

func TestActivateTransitions(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	license, _, err := svc.Create(admin.ID, "a@example.com")
	if err != nil {
		t.Fatalf("创建授权失败: %v", err)
	}
	if license.Status() != "Pending" {
		t.Errorf("新授权状态应为 Pending，实际 %q", license.Status())
	}

	activated, err := svc.Activate(license.ID, "Acme LLC", "retail")
	if err != nil {
		t.Fatalf("激活失败: %v", err)
	}
	if !activated.IsActivated || activated.ActivatedAt == nil {
		t.Error("激活后状态未更新")
	}
	if activated.Status() != "Active" {
		t.Errorf("激活后状态应为 Active，实际 %q", activated.Status())
	}
	if activated.BusinessName != "Acme LLC" {
		t.Errorf("业务信息未保存: %q", activated.BusinessName)
	}

	// 重复激活拒绝，不覆盖首次数据
	if _, err := svc.Activate(license.ID, "Other Inc", "tech"); !errors.Is(err, ErrAlreadyActivated) {
		t.Errorf("期望 ErrAlreadyActivated，得到 %v", err)
	}
	var saved model.License
	db.First(&saved, "id = ?", license.ID)
	if saved.BusinessName != "Acme LLC" {
		t.Errorf("重复激活不应覆盖数据: %q", saved.BusinessName)
	}
}

func TestScopeIsolation(t *testing.T) {
	db := setupTestDB(t)
	teamAdmin := createTestAdmin(t, db, "owner@budaedc.com")
	createTestTeam(t, db, teamAdmin, 10)
	soloAdmin := createTestAdmin(t, db, "solo@example.com")
	svc := NewLicenseService(db)

	// 同一邮箱可以同时出现在两个不同范围
	if _, _, err := svc.Create(teamAdmin.ID, "shared@example.com"); err != nil {
		t.Fatalf("团队范围创建失败: %v", err)
	}
	if _, _, err := svc.Create(soloAdmin.ID, "shared@example.com"); err != nil {
		t.Fatalf("独立范围创建失败: %v", err)
	}

	teamList, err := svc.List(teamAdmin.ID)
	if err != nil {
		t.Fatalf("团队列表失败: %v", err)
	}
	soloList, err := svc.List(soloAdmin.ID)
	if err != nil {
		t.Fatalf("独立列表失败: %v", err)
	}
	if len(teamList) != 1 || len(soloList) != 1 {
		t.Errorf("范围隔离失败: team=%d solo=%d", len(teamList), len(soloList))
	}

	// 跨范围操作视为不存在
	if err := svc.Remove(soloAdmin.ID, teamList[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("跨范围删除应返回 ErrNotFound，得到 %v", err)
	}
}

func TestRemovedMemberCanReuseTeamEmail(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestAdmin(t, db, "owner@budaedc.com")
	team := createTestTeam(t, db, owner, 10)
	member := createTestAdmin(t, db, "peer@budaedc.com")
	membership := addTeamMember(t, db, team, member, model.RoleMember)
	svc := NewLicenseService(db)

	// 成员在团队范围内创建授权
	if _, _, err := svc.Create(member.ID, "bob@example.com"); err != nil {
		t.Fatalf("团队范围创建失败: %v", err)
	}

	if err := NewTeamService(db).RemoveMember(owner.ID, membership.ID); err != nil {
		t.Fatalf("移除成员失败: %v", err)
	}

	// 唯一性按归属范围判定而非按创建者：
	// 离队后是独立范围，同一邮箱可以再次分配
	license, _, err := svc.Create(member.ID, "bob@example.com")
	if err != nil {
		t.Fatalf("离队后独立范围创建失败: %v", err)
	}
	if license.TeamID != nil {
		t.Errorf("独立范围授权不应挂在团队下: %v", *license.TeamID)
	}
}

func TestListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Create(admin.ID, fmt.Sprintf("user%d@example.com", i)); err != nil {
			t.Fatalf("创建授权失败: %v", err)
		}
	}

	licenses, err := svc.List(admin.ID)
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(licenses) != 3 {
		t.Fatalf("期望 3 条，实际 %d", len(licenses))
	}
	for i := 1; i < len(licenses); i++ {
		if licenses[i].CreatedAt.After(licenses[i-1].CreatedAt) {
			t.Error("列表应按创建时间倒序")
		}
	}
}

func TestEmailStatuses(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "owner@budaedc.com")
	svc := NewLicenseService(db)

	// 邮件服务未配置，创建的授权没有 MessageID
	license, _, err := svc.Create(admin.ID, "a@example.com")
	if err != nil {
		t.Fatalf("创建授权失败: %v", err)
	}

	statuses, err := svc.EmailStatuses(admin.ID, []string{license.ID})
	if err != nil {
		t.Fatalf("查询邮件状态失败: %v", err)
	}
	if statuses[license.ID] != "failed" {
		t.Errorf("未发送应为 failed，实际 %q", statuses[license.ID])
	}

	if _, err := svc.Activate(license.ID, "", ""); err != nil {
		t.Fatalf("激活失败: %v", err)
	}
	statuses, err = svc.EmailStatuses(admin.ID, []string{license.ID})
	if err != nil {
		t.Fatalf("查询邮件状态失败: %v", err)
	}
	if statuses[license.ID] != "activated" {
		t.Errorf("激活后应为 activated，实际 %q", statuses[license.ID])
	}
}
