package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"license-console/internal/config"
	"license-console/internal/model"

	"github.com/google/uuid"
)

// EmailService 邮件服务
type EmailService struct {
	enabled  bool
	host     string
	port     int
	username string
	password string
	from     string
}

// EmailResult 单封邮件的发送结果，MessageID 用于后续查询投递状态
type EmailResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewEmailService 创建邮件服务
func NewEmailService() *EmailService {
	cfg := config.Get()
	return &EmailService{
		enabled:  cfg.Email.Enabled,
		host:     cfg.Email.SMTPHost,
		port:     cfg.Email.SMTPPort,
		username: cfg.Email.Username,
		password: cfg.Email.Password,
		from:     cfg.Email.From,
	}
}

// SendEmail 发送邮件
func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.enabled || s.host == "" {
		return fmt.Errorf("邮件服务未配置")
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	// 支持 TLS
	if s.port == 465 {
		return s.sendEmailTLS(to, subject, body)
	}

	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg))
}

// sendEmailTLS 通过 TLS 发送邮件
func (s *EmailService) sendEmailTLS(to, subject, body string) error {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.host,
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err = client.Auth(auth); err != nil {
		return err
	}

	if err = client.Mail(s.from); err != nil {
		return err
	}
	if err = client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)

	_, err = w.Write([]byte(msg))
	if err != nil {
		return err
	}

	return w.Close()
}

// ActivationURL 拼接激活链接（面向美国用户的注册页，带合作方参数）
func ActivationURL(licenseID string) string {
	app := &config.Get().App
	return fmt.Sprintf("%s/register?licenseId=%s&ref=%s&org=%s",
		app.BaseURL, licenseID, app.Referral, app.Product)
}

// InviteURL 拼接团队邀请接受链接
func InviteURL(token string) string {
	return fmt.Sprintf("%s/team/invite?token=%s", config.Get().App.BaseURL, token)
}

// 激活邀请模板（正文面向终端用户，保持英文）
const licenseActivationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; background: #f6f9fc; }
        .container { max-width: 600px; margin: 0 auto; background: #ffffff; }
        .header { background: {{.Brand.PrimaryColor}}; color: white; padding: 32px 40px; text-align: center; }
        .content { padding: 40px; }
        .footer { padding: 32px 40px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; background: #f9fafb; }
        .btn { display: inline-block; padding: 16px 32px; background: {{.Brand.PrimaryColor}}; color: white; text-decoration: none; border-radius: 12px; font-weight: bold; }
        .box { background: #eff6ff; border: 1px solid #bfdbfe; border-radius: 12px; padding: 24px; margin: 24px 0; }
        .link { color: {{.Brand.PrimaryColor}}; word-break: break-all; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Brand.ProgramName}}</h1>
        </div>
        <div class="content">
            <h2>Welcome to {{.Brand.ProgramName}}! 🎉</h2>
            <p>You're officially in — and we're excited to have you.</p>
            <p>Thanks to the {{.Brand.FullName}} and the {{.Brand.ProgramName}} program,
            you've been granted a <strong>FREE {{.Brand.LicenseDuration}} license</strong> to
            Moil's AI-powered Business Coach — built to help you build, grow, and run your
            business with confidence, no matter your stage or experience level.</p>
            <p style="text-align: center; margin: 32px 0;">
                <a href="{{.ActivationURL}}" class="btn">👉 Activate Your {{.Brand.ProgramName}} Account</a>
            </p>
            <p>Or copy and paste this URL into your browser:<br>
            <a href="{{.ActivationURL}}" class="link">{{.ActivationURL}}</a></p>
            <div class="box">
                <h3>🧭 Next Steps (Takes ~5 Minutes)</h3>
                <p><strong>1.</strong> Click the activation link above</p>
                <p><strong>2.</strong> Verify your email</p>
                <p><strong>3.</strong> Sign in using this email address: <strong>{{.Email}}</strong></p>
                <p><strong>4.</strong> Complete your business profile</p>
                <p><strong>5.</strong> Start chatting with your AI Business Coach</p>
            </div>
            {{if .Brand.Features}}
            <div class="box">
                <h3>🎁 What You Get With Your {{.Brand.ProgramName}} License</h3>
                {{range .Brand.Features}}<p>• {{.}}</p>{{end}}
            </div>
            {{end}}
            <p>If you ever need help getting started, our support team is here for you at
            <a href="mailto:{{.Brand.SupportEmail}}" class="link">{{.Brand.SupportEmail}}</a>.</p>
            <p><strong>Welcome — we're excited to build with you. 💪</strong><br>
            The {{.Brand.FullName}}, {{.Brand.ProgramName}} &amp; Moil Team</p>
        </div>
        <div class="footer">
            <p>Powered by Moil • Sponsored by {{.Brand.FullName}}</p>
            <p>This email was sent to {{.Email}} because a {{.Brand.ProgramName}} license was assigned to you.</p>
        </div>
    </div>
</body>
</html>
`

// licenseActivationData 激活邮件数据
type licenseActivationData struct {
	Email         string
	AdminName     string
	ActivationURL string
	Brand         config.BrandConfig
}

// SendLicenseActivation 发送许可激活邀请，失败不影响已落库的数据
func (s *EmailService) SendLicenseActivation(license *model.License, adminName string, brand config.BrandConfig) EmailResult {
	tmpl, err := template.New("license_activation").Parse(licenseActivationTemplate)
	if err != nil {
		return EmailResult{Success: false, Error: err.Error()}
	}

	var buf bytes.Buffer
	data := licenseActivationData{
		Email:         license.Email,
		AdminName:     adminName,
		ActivationURL: ActivationURL(license.ID),
		Brand:         brand,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return EmailResult{Success: false, Error: err.Error()}
	}

	subject := fmt.Sprintf("Welcome to %s 🎉", brand.ProgramName)
	if err := s.SendEmail(license.Email, subject, buf.String()); err != nil {
		return EmailResult{Success: false, Error: err.Error()}
	}

	// SMTP 没有投递方回执 ID，本地生成用于状态追踪
	return EmailResult{Success: true, MessageID: uuid.NewString()}
}

// 团队邀请模板
const teamInvitationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; background: #f6f9fc; }
        .container { max-width: 600px; margin: 0 auto; background: #ffffff; }
        .header { background: {{.Brand.PrimaryColor}}; color: white; padding: 32px 40px; text-align: center; }
        .content { padding: 40px; }
        .footer { padding: 32px 40px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; background: #f9fafb; }
        .btn { display: inline-block; padding: 16px 32px; background: {{.Brand.PrimaryColor}}; color: white; text-decoration: none; border-radius: 12px; font-weight: bold; }
        .box { background: #f0fdf4; border: 1px solid #bbf7d0; border-radius: 12px; padding: 24px; margin: 24px 0; }
        .note { background: #fffbeb; border: 1px solid #fde68a; border-radius: 12px; padding: 16px 20px; margin: 24px 0; }
        .link { color: {{.Brand.PrimaryColor}}; word-break: break-all; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Brand.ProgramName}}</h1>
        </div>
        <div class="content">
            <h2>You're Invited! 🤝</h2>
            <p><strong>{{.InviterName}}</strong> has invited you to join <strong>{{.TeamName}}</strong>
            as {{.RoleDisplay}} on {{.Brand.ProgramName}}.</p>
            <p>As a team member, you'll be able to collaborate on license management, help onboard
            new users, and contribute to your organization's success on the {{.Brand.ProgramName}} platform.</p>
            <p style="text-align: center; margin: 32px 0;">
                <a href="{{.InviteURL}}" class="btn">Accept Invitation</a>
            </p>
            <p>Or copy and paste this URL into your browser:<br>
            <a href="{{.InviteURL}}" class="link">{{.InviteURL}}</a></p>
            <div class="box">
                <h3>What You'll Be Able To Do:</h3>
                <p>📋 Manage and assign licenses to users</p>
                <p>📧 Send activation emails to new users</p>
                <p>📊 View license statistics and analytics</p>
                {{if .IsAdmin}}
                <p>👥 Invite other team members</p>
                <p>💳 Purchase additional licenses</p>
                {{end}}
            </div>
            <div class="note">
                <p><strong>Note:</strong> This invitation will expire in 7 days. If you don't have
                a {{.Brand.ProgramName}} account yet, you'll be prompted to create one when you
                accept this invitation.</p>
            </div>
            <p>Questions? Contact the person who invited you or reach out to our support team at
            <a href="mailto:{{.Brand.SupportEmail}}" class="link">{{.Brand.SupportEmail}}</a>.</p>
        </div>
        <div class="footer">
            <p>Powered by Moil • Sponsored by {{.Brand.FullName}}</p>
            <p>This email was sent to {{.Email}} because you were invited to join a team on {{.Brand.ProgramName}}.</p>
            <p>If you didn't expect this invitation, you can safely ignore this email.</p>
        </div>
    </div>
</body>
</html>
`

// teamInvitationData 团队邀请邮件数据
type teamInvitationData struct {
	Email       string
	InviterName string
	TeamName    string
	RoleDisplay string
	IsAdmin     bool
	InviteURL   string
	Brand       config.BrandConfig
}

// SendTeamInvitation 发送团队邀请
func (s *EmailService) SendTeamInvitation(inv *model.TeamInvitation, inviterName, teamName string, brand config.BrandConfig) EmailResult {
	tmpl, err := template.New("team_invitation").Parse(teamInvitationTemplate)
	if err != nil {
		return EmailResult{Success: false, Error: err.Error()}
	}

	roleDisplay := "a member"
	if inv.Role == model.RoleAdmin {
		roleDisplay = "an admin"
	}

	var buf bytes.Buffer
	data := teamInvitationData{
		Email:       inv.Email,
		InviterName: inviterName,
		TeamName:    teamName,
		RoleDisplay: roleDisplay,
		IsAdmin:     inv.Role == model.RoleAdmin,
		InviteURL:   InviteURL(inv.Token),
		Brand:       brand,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return EmailResult{Success: false, Error: err.Error()}
	}

	subject := fmt.Sprintf("You've been invited to join %s on %s! 🤝", teamName, brand.ProgramName)
	if err := s.SendEmail(inv.Email, subject, buf.String()); err != nil {
		return EmailResult{Success: false, Error: err.Error()}
	}

	return EmailResult{Success: true, MessageID: uuid.NewString()}
}
