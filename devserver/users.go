package devserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/session"
	"golang.org/x/crypto/bcrypt"
)

type MembershipLevel string

const (
	MembershipFree MembershipLevel = "free"
	MembershipVIP  MembershipLevel = "vip"
)

type User struct {
	ID           string          `json:"id,omitempty"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"` // never serialize
	Phone        string          `json:"phone,omitempty"`
	Company      string          `json:"company,omitempty"`
	Avatar       string          `json:"avatar,omitempty"`
	Membership   MembershipLevel `json:"membership_level,omitempty"`
	DateJoined   time.Time       `json:"date_joined,omitempty"`
	LastLogin    time.Time       `json:"last_login,omitempty"`
	Blocked      bool            `json:"blocked,omitempty"`
}

// Profile is the user-info view of the account.
func (u *User) Profile() session.UserProfile {
	return session.UserProfile{
		Username:        u.Username,
		MembershipLevel: string(u.Membership),
		Company:         u.Company,
		Phone:           u.Phone,
		Avatar:          u.Avatar,
	}
}

// CheckPasswordHash is a method that checks a password against the user's hash
func (u *User) CheckPasswordHash(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

type UserRepo interface {
	Upsert(user *User) error
	Create(user *User) error
	GetByUsername(username string) (*User, error)
	GetByPhone(phone string) (*User, error)
	List() ([]*User, error)
	SetLastLogin(username string, at time.Time) error
}

// MemoryUserRepo keys users by lower-cased username.
type MemoryUserRepo struct {
	users    map[string]*User
	phoneIDs map[string]string // phone to username key
	lock     sync.RWMutex
}

var _ UserRepo = (*MemoryUserRepo)(nil)

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:    make(map[string]*User),
		phoneIDs: make(map[string]string),
	}
}

func userKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (ur *MemoryUserRepo) Upsert(user *User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	ur.put(user)
	return nil
}

// Create stores a new user, failing with ErrUserExists when the username or
// phone is taken.
func (ur *MemoryUserRepo) Create(user *User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[userKey(user.Username)]; ok {
		return apperrors.ErrUserExists
	}
	if _, ok := ur.phoneIDs[user.Phone]; ok && user.Phone != "" {
		return fmt.Errorf("phone already registered: %w", apperrors.ErrUserExists)
	}
	ur.put(user)
	return nil
}

func (ur *MemoryUserRepo) put(user *User) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	key := userKey(user.Username)
	ur.users[key] = user
	if user.Phone != "" {
		ur.phoneIDs[user.Phone] = key
	}
}

func (ur *MemoryUserRepo) GetByUsername(username string) (*User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[userKey(username)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (ur *MemoryUserRepo) GetByPhone(phone string) (*User, error) {
	ur.lock.RLock()
	key, ok := ur.phoneIDs[phone]
	ur.lock.RUnlock()
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return ur.GetByUsername(key)
}

func (ur *MemoryUserRepo) List() ([]*User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*User, 0, len(ur.users))
	for _, u := range ur.users {
		cp := *u
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

func (ur *MemoryUserRepo) SetLastLogin(username string, at time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[userKey(username)]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.LastLogin = at
	return nil
}
