package devserver

import (
	"net/http"
	"regexp"
	"strings"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
)

var phonePattern = regexp.MustCompile(`^1\d{10}$`)

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshBody struct {
	Refresh string `json:"refresh"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type registerBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	SMSCode  string `json:"sms_code"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Username == "" || body.Password == "" {
		writeDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.users.GetByUsername(body.Username)
	if err != nil || !user.CheckPasswordHash(body.Password) {
		s.logger.Info().Str("username", body.Username).Msg("login rejected")
		writeDetail(w, http.StatusUnauthorized, "no active account found with the given credentials")
		return
	}
	if user.Blocked {
		writeDetail(w, http.StatusForbidden, apperrors.ErrUserBlocked.Error())
		return
	}

	pair, err := s.issuePair(user.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("issue tokens")
		writeDetail(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	_ = s.users.SetLastLogin(user.Username, s.nowFunc())
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	var body refreshBody
	if err := decodeJSON(w, r, &body); err != nil || body.Refresh == "" {
		writeDetail(w, http.StatusBadRequest, "refresh is required")
		return
	}

	rotated, err := s.refresh.Rotate(body.Refresh)
	if err != nil {
		detail := "token is invalid or expired"
		if apperrors.Is(err, apperrors.ErrRefreshTokenExpired) {
			detail = "token has expired"
		}
		writeDetail(w, http.StatusUnauthorized, detail)
		return
	}
	access, err := s.issueAccess(rotated.Username, rotated.Token)
	if err != nil {
		s.logger.Error().Err(err).Str("username", rotated.Username).Msg("issue access token")
		writeDetail(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokenPair{Access: access, Refresh: rotated.Token})
}

// logoutHandler revokes the refresh token and the access token last minted
// from it. Unknown tokens are not an error.
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	var body refreshBody
	_ = decodeJSON(w, r, &body)

	if stored := s.refresh.Revoke(body.Refresh); stored != nil {
		s.revokeAccess(stored.AccessJTI, stored.AccessExp)
		s.logger.Info().Str("username", stored.Username).Msg("logged out")
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) userInfoHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeDetail(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user.Profile()})
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	body.Company = strings.TrimSpace(body.Company)

	switch {
	case body.Username == "":
		writeError(w, http.StatusBadRequest, "username is required")
		return
	case !phonePattern.MatchString(body.Phone):
		writeError(w, http.StatusBadRequest, "invalid phone number")
		return
	case body.Company == "":
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}
	if err := ValidatePasswordStrength(body.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.sms.Verify(body.Phone, body.SMSCode) {
		writeError(w, http.StatusBadRequest, apperrors.ErrInvalidSMSCode.Error())
		return
	}

	hash, err := HashPassword(body.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("hash password")
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}
	err = s.users.Create(&User{
		Username:     body.Username,
		PasswordHash: hash,
		Phone:        body.Phone,
		Company:      body.Company,
		Membership:   MembershipFree,
		DateJoined:   s.nowFunc(),
	})
	if apperrors.Is(err, apperrors.ErrUserExists) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("create user")
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}
	s.logger.Info().Str("username", body.Username).Msg("registered")
	writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
}

func (s *Server) sendSMSCodeHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(w, r, &body); err != nil || !phonePattern.MatchString(body.Phone) {
		writeError(w, http.StatusBadRequest, "invalid phone number")
		return
	}

	code, err := s.sms.Issue(body.Phone)
	if apperrors.Is(err, errSMSTooSoon) {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("issue sms code")
		writeError(w, http.StatusInternalServerError, "could not send code")
		return
	}
	if err := s.smsSender(body.Phone, code); err != nil {
		s.sms.Forget(body.Phone)
		s.logger.Error().Err(err).Str("phone", body.Phone).Msg("send sms code")
		writeError(w, http.StatusBadGateway, "could not send code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "code sent"})
}

func (s *Server) issuePair(username string) (*tokenPair, error) {
	refresh, err := s.refresh.Create(username)
	if err != nil {
		return nil, err
	}
	access, err := s.issueAccess(username, refresh.Token)
	if err != nil {
		return nil, err
	}
	return &tokenPair{Access: access, Refresh: refresh.Token}, nil
}
