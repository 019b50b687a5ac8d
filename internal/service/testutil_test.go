package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"license-console/internal/config"
	"license-console/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// setupTestDB 每个测试一个独立的内存库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	config.Set(&config.Config{
		App: config.AppConfig{
			AllowedAdminDomains: []string{"budaedc.com", "moilapp.com"},
		},
	})

	n := atomic.AddInt64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Admin{},
		&model.Team{},
		&model.TeamMember{},
		&model.TeamInvitation{},
		&model.License{},
		&model.PurchaseRecord{},
		&model.Webhook{},
		&model.WebhookLog{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}

	return db
}

// createTestAdmin 创建测试管理员
func createTestAdmin(t *testing.T, db *gorm.DB, email string) *model.Admin {
	t.Helper()

	admin := &model.Admin{
		Email:     email,
		FirstName: "Test",
		LastName:  "Admin",
		Role:      model.RoleAdminClaim,
	}
	if err := admin.SetPassword("test123456"); err != nil {
		t.Fatalf("设置密码失败: %v", err)
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("创建测试管理员失败: %v", err)
	}
	return admin
}

// createTestTeam 创建测试团队并把 owner 加为成员
func createTestTeam(t *testing.T, db *gorm.DB, owner *model.Admin, purchased int) *model.Team {
	t.Helper()

	team := &model.Team{
		Name:                  "Test Team",
		Domain:                owner.EmailDomain(),
		OwnerID:               owner.ID,
		PurchasedLicenseCount: purchased,
	}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("创建测试团队失败: %v", err)
	}
	member := &model.TeamMember{
		TeamID:  team.ID,
		AdminID: owner.ID,
		Role:    model.RoleOwner,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("创建团队成员失败: %v", err)
	}
	return team
}

// addTeamMember 把管理员加入团队
func addTeamMember(t *testing.T, db *gorm.DB, team *model.Team, admin *model.Admin, role model.TeamMemberRole) *model.TeamMember {
	t.Helper()

	member := &model.TeamMember{
		TeamID:  team.ID,
		AdminID: admin.ID,
		Role:    role,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("添加团队成员失败: %v", err)
	}
	return member
}
