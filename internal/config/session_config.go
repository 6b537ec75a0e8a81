package config

type SessionConfig interface {
	GetLoginPath() string
	GetRefreshPath() string
	GetLogoutPath() string
	GetUserInfoPath() string
	GetRegisterPath() string
	GetSMSCodePath() string
	GetLoginEntryPoint() string
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetLoginPath() string {
	return "/api/login/"
}

func (Session) GetRefreshPath() string {
	return "/api/token/refresh/"
}

func (Session) GetLogoutPath() string {
	return "/api/logout/"
}

func (Session) GetUserInfoPath() string {
	return "/api/user-info/"
}

func (Session) GetRegisterPath() string {
	return "/api/register/"
}

func (Session) GetSMSCodePath() string {
	return "/api/send_sms_code/"
}

// GetLoginEntryPoint is where an irrecoverable session sends the user. For
// the CLI that is the command that starts a new session.
func (Session) GetLoginEntryPoint() string {
	return GetEnv("TENDER_LOGIN_ENTRY", "tender login")
}
