package session

// State is the lifecycle position of a session.
type State int

const (
	Anonymous State = iota
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Credentials is the access/refresh token pair.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// UserProfile is the authenticated user's account as returned by user-info.
// It is kept in memory only.
type UserProfile struct {
	Username        string `json:"username"`
	MembershipLevel string `json:"membership_level,omitempty"`
	Company         string `json:"company,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Avatar          string `json:"avatar,omitempty"`
}

// Endpoints are the backend paths the session talks to.
type Endpoints struct {
	Login    string
	Refresh  string
	Logout   string
	UserInfo string
	Register string
	SMSCode  string
}

// DefaultEndpoints matches the platform's REST boundary.
var DefaultEndpoints = Endpoints{
	Login:    "/api/login/",
	Refresh:  "/api/token/refresh/",
	Logout:   "/api/logout/",
	UserInfo: "/api/user-info/",
	Register: "/api/register/",
	SMSCode:  "/api/send_sms_code/",
}

// Navigator receives the hard reset to the login entry point.
type Navigator interface {
	RedirectToLogin(reason string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(reason string)

func (f NavigatorFunc) RedirectToLogin(reason string) {
	f(reason)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type userInfoResponse struct {
	User *UserProfile `json:"user"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (b errorBody) message() string {
	if b.Detail != "" {
		return b.Detail
	}
	return b.Error
}
