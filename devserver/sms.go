package devserver

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const (
	smsCodeTTL      = 5 * time.Minute
	smsResendWindow = time.Minute
)

var errSMSTooSoon = errors.New("a code was sent recently, try again later")

// SMSSender delivers a verification code. The dev server has no gateway;
// the default sender logs the code.
type SMSSender func(phone, code string) error

func (s *Server) logSMS(phone, code string) error {
	s.logger.Info().Str("phone", phone).Str("code", code).Msg("sms verification code")
	return nil
}

type smsCode struct {
	code   string
	sentAt time.Time
}

type smsCodes struct {
	codes   map[string]smsCode
	lock    sync.Mutex
	nowFunc func() time.Time
}

func newSMSCodes(now func() time.Time) *smsCodes {
	return &smsCodes{codes: make(map[string]smsCode), nowFunc: now}
}

// Issue generates a six digit code for phone, refusing to resend inside
// the resend window.
func (c *smsCodes) Issue(phone string) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := c.nowFunc()
	if prev, ok := c.codes[phone]; ok && now.Sub(prev.sentAt) < smsResendWindow {
		return "", errSMSTooSoon
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate sms code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	c.codes[phone] = smsCode{code: code, sentAt: now}
	return code, nil
}

// Forget drops the code for phone, used when delivery fails.
func (c *smsCodes) Forget(phone string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.codes, phone)
}

// Verify consumes the code for phone if it matches and has not expired.
func (c *smsCodes) Verify(phone, code string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	issued, ok := c.codes[phone]
	if !ok {
		return false
	}
	if c.nowFunc().Sub(issued.sentAt) > smsCodeTTL {
		delete(c.codes, phone)
		return false
	}
	if subtle.ConstantTimeCompare([]byte(issued.code), []byte(code)) != 1 {
		return false
	}
	delete(c.codes, phone)
	return true
}
