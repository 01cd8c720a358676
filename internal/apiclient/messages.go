package apiclient

import "net/http"

// CallContext tells UserMessage which flow a failure came from, so that the
// same status can read differently (a 404 on sign-in is a missing account,
// on reset-password it is a missing token).
type CallContext int

const (
	CallGeneric CallContext = iota
	CallSignIn
	CallSignUp
	CallVerifyEmail
	CallForgetPassword
	CallResetToken
	CallDashboard
	CallProfile
)

const (
	msgNetwork          = "Không thể kết nối tới máy chủ, vui lòng kiểm tra mạng và thử lại"
	msgTimeout          = "Mạng chậm, vui lòng thử lại"
	msgMalformed        = "Phản hồi từ máy chủ không hợp lệ"
	msgInvalidInput     = "Dữ liệu không hợp lệ"
	msgSessionExpired   = "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"
	msgWrongCredentials = "Email hoặc mật khẩu không đúng"
	msgForbidden        = "Bạn không có quyền thực hiện thao tác này"
	msgEmailUnverified  = "Email chưa được xác thực"
	msgAccountNotFound  = "Không tìm thấy tài khoản"
	msgTokenNotFound    = "Liên kết không tồn tại hoặc đã hết hạn"
	msgNotFound         = "Không tìm thấy dữ liệu"
	msgEmailTaken       = "Email đã được sử dụng"
	msgRateLimited      = "Bạn thao tác quá nhanh, vui lòng thử lại sau"
	msgServer           = "Máy chủ đang gặp sự cố, vui lòng thử lại sau"
	msgUnknown          = "Đã có lỗi xảy ra, vui lòng thử lại"
)

// UserMessage returns the text shown to the user for a failed envelope.
// A message supplied by the backend wins, except for server failures whose
// details are never surfaced.
func UserMessage(call CallContext, env *Envelope) string {
	if env == nil {
		return msgUnknown
	}

	switch env.Status {
	case StatusNetworkError:
		return msgNetwork
	case StatusTimeout:
		return msgTimeout
	}

	if env.Status >= 500 {
		return msgServer
	}
	if env.Status >= 200 && env.Status < 300 {
		if env.Error != "" {
			return msgMalformed
		}
		return env.Message
	}
	if env.Message != "" && env.Status != http.StatusUnauthorized {
		return env.Message
	}

	switch env.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return msgInvalidInput
	case http.StatusUnauthorized:
		if call == CallSignIn {
			return msgWrongCredentials
		}
		return msgSessionExpired
	case http.StatusForbidden:
		if call == CallSignIn {
			return msgEmailUnverified
		}
		return msgForbidden
	case http.StatusNotFound:
		switch call {
		case CallSignIn, CallForgetPassword, CallProfile:
			return msgAccountNotFound
		case CallVerifyEmail, CallResetToken:
			return msgTokenNotFound
		default:
			return msgNotFound
		}
	case http.StatusConflict:
		if call == CallSignUp {
			return msgEmailTaken
		}
	case http.StatusTooManyRequests:
		return msgRateLimited
	}

	if env.Error != "" {
		return env.Error
	}
	return msgUnknown
}
