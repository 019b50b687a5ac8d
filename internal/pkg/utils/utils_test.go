package utils

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  spaced@example.com  ", "spaced@example.com"},
		{"already@example.com", "already@example.com"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeEmail(c.in); got != c.want {
			t.Errorf("NormalizeEmail(%q) = %q, 期望 %q", c.in, got, c.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "x@y", "user+tag@example.com"}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("%q 应视为有效", e)
		}
	}
	invalid := []string{"", "no-at-sign", "   "}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("%q 应视为无效", e)
		}
	}
}

func TestEmailDomain(t *testing.T) {
	if got := EmailDomain("User@BudaEDC.com"); got != "budaedc.com" {
		t.Errorf("EmailDomain = %q", got)
	}
	if got := EmailDomain("no-at-sign"); got != "" {
		t.Errorf("无效邮箱应返回空串，得到 %q", got)
	}
	if got := EmailDomain("trailing@"); got != "" {
		t.Errorf("空域名应返回空串，得到 %q", got)
	}
}

func TestGenerateInviteToken(t *testing.T) {
	a := GenerateInviteToken()
	b := GenerateInviteToken()
	if len(a) != 32 {
		t.Errorf("Token 长度应为 32，实际 %d", len(a))
	}
	if a == b {
		t.Error("连续生成的 Token 不应相同")
	}
}

func TestMaskEmail(t *testing.T) {
	if got := MaskEmail("johndoe@example.com"); got != "j***e@example.com" {
		t.Errorf("MaskEmail = %q", got)
	}
	if got := MaskEmail("ab@example.com"); got != "ab@example.com" {
		t.Errorf("短邮箱不应处理，得到 %q", got)
	}
}
