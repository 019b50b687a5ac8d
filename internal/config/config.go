package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	App      AppConfig      `yaml:"app"`
	Email    EmailConfig    `yaml:"email"`
	Payment  PaymentConfig  `yaml:"payment"`
	Security SecurityConfig `yaml:"security"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // mysql / sqlite
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	Path         string `yaml:"path"` // sqlite 文件路径
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Charset)
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// AppConfig 应用级配置：激活链接、产品标识、管理员域名白名单、合作方品牌
type AppConfig struct {
	BaseURL              string        `yaml:"base_url"`               // 激活链接的基础地址
	Product              string        `yaml:"product"`                // 产品标识（导出文件名、激活链接 org 参数）
	Referral             string        `yaml:"referral"`               // 激活链接 ref 参数
	AllowedAdminDomains  []string      `yaml:"allowed_admin_domains"`  // 可创建团队的邮箱域名白名单
	DashboardRedirectURL string        `yaml:"dashboard_redirect_url"` // 支付完成后跳转地址
	Brands               []BrandConfig `yaml:"brands"`                 // 合作方品牌（按邮箱域名匹配）
	DefaultBrand         BrandConfig   `yaml:"default_brand"`
}

// BrandConfig 合作方品牌信息（邮件展示用）
type BrandConfig struct {
	Domain          string   `yaml:"domain"` // 匹配的邮箱域名，默认品牌留空
	ProgramName     string   `yaml:"program_name"`
	FullName        string   `yaml:"full_name"`
	Label           string   `yaml:"label"` // 团队默认名中的简称
	PrimaryColor    string   `yaml:"primary_color"`
	SupportEmail    string   `yaml:"support_email"`
	LicenseDuration string   `yaml:"license_duration"`
	Features        []string `yaml:"features"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type PaymentConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type SecurityConfig struct {
	// 登录安全
	MaxLoginAttempts int `yaml:"max_login_attempts"` // 最大登录尝试次数
	LoginLockMinutes int `yaml:"login_lock_minutes"` // 登录锁定时间（分钟）
	IPMaxAttempts    int `yaml:"ip_max_attempts"`    // IP 最大尝试次数
	IPLockMinutes    int `yaml:"ip_lock_minutes"`    // IP 锁定时间（分钟）

	// 密码策略
	PasswordMinLength int `yaml:"password_min_length"` // 密码最小长度

	// 安全头
	EnableSecurityHeaders bool `yaml:"enable_security_headers"` // 是否启用安全响应头

	// 允许的来源（CORS）
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var globalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	setDefaults(&cfg)

	// 安全检查
	if err := validateSecurity(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

func Get() *Config {
	return globalConfig
}

// Set 注入配置（测试用）
func Set(cfg *Config) {
	setDefaults(cfg)
	globalConfig = cfg
}

// setDefaults 设置默认值
func setDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 24
	}
	if cfg.App.Product == "" {
		cfg.App.Product = "buda-hive"
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "https://business.moilapp.com"
	}
	if cfg.App.Referral == "" {
		cfg.App.Referral = "budaHive"
	}
	if cfg.App.DefaultBrand.ProgramName == "" {
		cfg.App.DefaultBrand = BrandConfig{
			ProgramName:     "Buda Hive",
			FullName:        "Buda Economic Development Corporation",
			Label:           "Buda EDC",
			PrimaryColor:    "#1e40af",
			SupportEmail:    "cs@moilapp.com",
			LicenseDuration: "1 year",
		}
	}
	if cfg.Security.MaxLoginAttempts == 0 {
		cfg.Security.MaxLoginAttempts = 5
	}
	if cfg.Security.LoginLockMinutes == 0 {
		cfg.Security.LoginLockMinutes = 15
	}
	if cfg.Security.IPMaxAttempts == 0 {
		cfg.Security.IPMaxAttempts = 20
	}
	if cfg.Security.IPLockMinutes == 0 {
		cfg.Security.IPLockMinutes = 30
	}
	if cfg.Security.PasswordMinLength == 0 {
		cfg.Security.PasswordMinLength = 6
	}
}

// validateSecurity 验证安全配置
func validateSecurity(cfg *Config) error {
	// 检查 JWT Secret
	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "your-jwt-secret-key-change-in-production" {
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("生产环境必须设置安全的 JWT Secret")
		}
		// 开发环境自动生成随机密钥
		cfg.JWT.Secret = generateRandomSecret(32)
		fmt.Println("[WARNING] 使用自动生成的 JWT Secret，请在生产环境配置安全的密钥")
	}

	if len(cfg.JWT.Secret) < 32 {
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("JWT Secret 长度至少需要 32 个字符")
		}
		fmt.Println("[WARNING] JWT Secret 长度建议至少 32 个字符")
	}

	return nil
}

// BrandForDomain 按邮箱域名查找合作方品牌，未命中返回默认品牌
func (a *AppConfig) BrandForDomain(domain string) BrandConfig {
	for _, b := range a.Brands {
		if strings.EqualFold(b.Domain, domain) {
			return b
		}
	}
	return a.DefaultBrand
}

// DomainAllowed 检查域名是否在管理员白名单内
func (a *AppConfig) DomainAllowed(domain string) bool {
	for _, d := range a.AllowedAdminDomains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// generateRandomSecret 生成随机密钥
func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
