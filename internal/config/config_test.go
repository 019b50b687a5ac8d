package config

import "testing"

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	Set(cfg)

	if cfg.App.Product != "buda-hive" {
		t.Errorf("默认产品标识不符: %q", cfg.App.Product)
	}
	if cfg.App.BaseURL == "" {
		t.Error("应有默认基础地址")
	}
	if cfg.App.DefaultBrand.ProgramName != "Buda Hive" {
		t.Errorf("默认品牌不符: %q", cfg.App.DefaultBrand.ProgramName)
	}
	if cfg.Security.MaxLoginAttempts != 5 {
		t.Errorf("默认登录尝试次数不符: %d", cfg.Security.MaxLoginAttempts)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("默认数据库驱动不符: %q", cfg.Database.Driver)
	}
}

func TestBrandForDomain(t *testing.T) {
	app := AppConfig{
		Brands: []BrandConfig{
			{Domain: "budaedc.com", ProgramName: "Buda Hive", Label: "Buda EDC"},
			{Domain: "partner.org", ProgramName: "Partner Program", Label: "Partner"},
		},
		DefaultBrand: BrandConfig{ProgramName: "Default", Label: "Default"},
	}

	if got := app.BrandForDomain("budaedc.com").ProgramName; got != "Buda Hive" {
		t.Errorf("品牌匹配失败: %q", got)
	}
	if got := app.BrandForDomain("PARTNER.ORG").ProgramName; got != "Partner Program" {
		t.Errorf("品牌匹配应忽略大小写: %q", got)
	}
	if got := app.BrandForDomain("unknown.com").ProgramName; got != "Default" {
		t.Errorf("未命中应返回默认品牌: %q", got)
	}
}

func TestDomainAllowed(t *testing.T) {
	app := AppConfig{AllowedAdminDomains: []string{"budaedc.com", "moilapp.com"}}

	if !app.DomainAllowed("budaedc.com") {
		t.Error("白名单域名应允许")
	}
	if !app.DomainAllowed("MoilApp.com") {
		t.Error("白名单检查应忽略大小写")
	}
	if app.DomainAllowed("gmail.com") {
		t.Error("非白名单域名应拒绝")
	}
}
