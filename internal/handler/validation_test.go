package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pathlight-web/internal/domain"
)

func TestValidateSignUpRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *domain.SignUpRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid request",
			req: &domain.SignUpRequest{
				Email:    "lan@example.com",
				Password: "mat-khau-dai",
				FullName: "Nguyễn Lan",
			},
		},
		{
			name: "name is optional",
			req: &domain.SignUpRequest{
				Email:    "lan@example.com",
				Password: "mat-khau-dai",
			},
		},
		{
			name: "empty email",
			req: &domain.SignUpRequest{
				Password: "mat-khau-dai",
			},
			wantErr: true,
			errMsg:  "Vui lòng nhập email",
		},
		{
			name: "malformed email",
			req: &domain.SignUpRequest{
				Email:    "lan.example.com",
				Password: "mat-khau-dai",
			},
			wantErr: true,
			errMsg:  "Email không hợp lệ",
		},
		{
			name: "short password",
			req: &domain.SignUpRequest{
				Email:    "lan@example.com",
				Password: "ngắn",
			},
			wantErr: true,
			errMsg:  "Mật khẩu phải có ít nhất 8 ký tự",
		},
		{
			name: "password counted in characters",
			req: &domain.SignUpRequest{
				Email:    "lan@example.com",
				Password: "mậtkhẩuđủ",
			},
		},
		{
			name: "one letter name",
			req: &domain.SignUpRequest{
				Email:    "lan@example.com",
				Password: "mat-khau-dai",
				FullName: "L",
			},
			wantErr: true,
			errMsg:  "Họ tên phải có ít nhất 2 ký tự",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSignUpRequest(tt.req)
			if tt.wantErr {
				if assert.Error(t, err) {
					assert.Equal(t, tt.errMsg, err.Error())
				}
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidClock(t *testing.T) {
	for in, want := range map[string]bool{
		"00:00": true,
		"07:30": true,
		"23:59": true,
		"24:00": false,
		"12:60": false,
		"7:30":  false,
		"07-30": false,
		"ab:cd": false,
		"":      false,
	} {
		assert.Equal(t, want, validClock(in), in)
	}
}

func TestPostLoginRedirect(t *testing.T) {
	assert.Equal(t, "/profile?tab=1", postLoginRedirect("/profile?tab=1"))
	assert.Equal(t, DashboardPath, postLoginRedirect(""))
	assert.Equal(t, DashboardPath, postLoginRedirect("https://evil.example/"))
	assert.Equal(t, DashboardPath, postLoginRedirect("/auth/signin?redirect=%2F"))
}

func TestValidateProfileUpdate(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		update    domain.ProfileUpdate
		errMsg    string
		wantPhone string
	}{
		{name: "empty update"},
		{name: "blank name", update: domain.ProfileUpdate{FullName: str("  ")}, errMsg: "Họ tên không được để trống"},
		{name: "phone normalized", update: domain.ProfileUpdate{Phone: str("+84 912 345 678")}, wantPhone: "0912345678"},
		{name: "blank phone left alone", update: domain.ProfileUpdate{Phone: str("")}, wantPhone: ""},
		{name: "bad phone", update: domain.ProfileUpdate{Phone: str("12345")}, errMsg: "Số điện thoại không hợp lệ"},
		{name: "landline rejected", update: domain.ProfileUpdate{Phone: str("0243 825 123")}, errMsg: "Số điện thoại không hợp lệ"},
		{name: "bad birthday", update: domain.ProfileUpdate{Birthday: str("13/03/2000")}, errMsg: "Ngày sinh không hợp lệ"},
		{name: "good birthday", update: domain.ProfileUpdate{Birthday: str("2000-03-13")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProfileUpdate(&tt.update)
			if tt.errMsg != "" {
				assert.EqualError(t, err, tt.errMsg)
				return
			}
			assert.NoError(t, err)
			if tt.update.Phone != nil {
				assert.Equal(t, tt.wantPhone, *tt.update.Phone)
			}
		})
	}
}
