package session

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
)

var phonePattern = regexp.MustCompile(`^1\d{10}$`)

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	SMSCode  string `json:"sms_code"`
}

// Validate checks the request locally so nothing malformed reaches the server.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return apperrors.Invalid("username", "is required")
	}
	if r.Password == "" {
		return apperrors.Invalid("password", "is required")
	}
	if err := ValidatePhone(r.Phone); err != nil {
		return err
	}
	if strings.TrimSpace(r.Company) == "" {
		return apperrors.Invalid("company", "is required")
	}
	if strings.TrimSpace(r.SMSCode) == "" {
		return apperrors.Invalid("sms_code", "is required")
	}
	return nil
}

// ValidatePhone accepts 11-digit mainland mobile numbers starting with 1.
func ValidatePhone(phone string) error {
	if phone == "" {
		return apperrors.Invalid("phone", "is required")
	}
	if !phonePattern.MatchString(phone) {
		return apperrors.Invalid("phone", "must be 11 digits starting with 1")
	}
	return nil
}

// Register creates an account. It does not log in.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return m.postAnonymous(ctx, "register", m.endpoints.Register, req)
}

// SendSMSCode asks the backend to text a verification code to phone.
func (m *Manager) SendSMSCode(ctx context.Context, phone string) error {
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	return m.postAnonymous(ctx, "send sms code", m.endpoints.SMSCode, map[string]string{"phone": phone})
}

func (m *Manager) postAnonymous(ctx context.Context, op, path string, body any) error {
	status, detail, err := m.postJSON(ctx, path, body, nil)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		m.logger.Warn().Str("op", op).Int("status", status).Str("detail", detail).Msg("request rejected")
		return &apperrors.NetworkError{StatusCode: status, Message: detail}
	}
	return nil
}
