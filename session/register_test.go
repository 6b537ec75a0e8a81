package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/session"
	"github.com/jrsteele09/go-tender-client/session/memstore"
)

func validRegistration() session.RegisterRequest {
	return session.RegisterRequest{
		Username: "newuser",
		Password: "Secret123",
		Phone:    "13800138000",
		Company:  "Acme Construction",
		SMSCode:  "123456",
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	require.NoError(t, validRegistration().Validate())

	tests := []struct {
		name  string
		mut   func(*session.RegisterRequest)
		field string
	}{
		{"missing username", func(r *session.RegisterRequest) { r.Username = " " }, "username"},
		{"missing password", func(r *session.RegisterRequest) { r.Password = "" }, "password"},
		{"short phone", func(r *session.RegisterRequest) { r.Phone = "1380013800" }, "phone"},
		{"phone not starting with 1", func(r *session.RegisterRequest) { r.Phone = "23800138000" }, "phone"},
		{"missing company", func(r *session.RegisterRequest) { r.Company = "" }, "company"},
		{"missing code", func(r *session.RegisterRequest) { r.SMSCode = "" }, "sms_code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mut(&req)
			err := req.Validate()
			require.ErrorIs(t, err, apperrors.ErrValidation)

			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRegisterAndSMS(t *testing.T) {
	var calls atomic.Int32
	var got session.RegisterRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Username == "taken" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"username already exists"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/send_sms_code/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := session.New(srv.URL, memstore.New(), session.WithHTTPClient(srv.Client()))
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, validRegistration()))
	require.Equal(t, "123456", got.SMSCode)
	require.Equal(t, session.Anonymous, m.State())

	taken := validRegistration()
	taken.Username = "taken"
	err := m.Register(ctx, taken)
	require.True(t, apperrors.IsStatus(err, http.StatusBadRequest))
	require.Contains(t, err.Error(), "username already exists")

	require.NoError(t, m.SendSMSCode(ctx, "13800138000"))

	before := calls.Load()
	require.ErrorIs(t, m.SendSMSCode(ctx, "12345"), apperrors.ErrValidation)
	require.Equal(t, before, calls.Load(), "invalid phone never reaches the server")
}
