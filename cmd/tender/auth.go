package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jrsteele09/go-tender-client/report"
	"github.com/jrsteele09/go-tender-client/session"
)

const passwordEnvVar = "TENDER_PASSWORD"

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password (or "+passwordEnvVar+")")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *username == "" {
		if *username, err = a.prompt("username: "); err != nil {
			return err
		}
	}
	if *password == "" {
		*password = os.Getenv(passwordEnvVar)
	}
	if *password == "" {
		if *password, err = a.prompt("password: "); err != nil {
			return err
		}
	}

	profile, err := a.session.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s\n", profile.Username)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := newFlagSet(a, "logout").Parse(args); err != nil {
		return err
	}
	a.session.Logout(ctx)
	a.api.Cache().Invalidate()
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	if err := newFlagSet(a, "whoami").Parse(args); err != nil {
		return err
	}
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	profile := a.session.Profile()
	if profile == nil {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}

	rows := [][]string{
		{"username", profile.Username},
		{"membership", profile.MembershipLevel},
		{"company", profile.Company},
		{"phone", profile.Phone},
	}
	if tok, err := a.session.Token(); err == nil && !tok.Expiry.IsZero() {
		rows = append(rows, []string{"access expires", tok.Expiry.Local().Format("2006-01-02 15:04:05")})
	}
	fmt.Fprintln(a.out, report.Table([]string{"field", "value"}, rows))
	return nil
}

func runSendSMS(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "sms")
	phone := fs.String("phone", "", "mobile number to text the code to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session.SendSMSCode(ctx, *phone); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "verification code sent to %s\n", *phone)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "register")
	var req session.RegisterRequest
	fs.StringVar(&req.Username, "username", "", "new account username")
	fs.StringVar(&req.Password, "password", "", "new account password")
	fs.StringVar(&req.Phone, "phone", "", "mobile number the code was sent to")
	fs.StringVar(&req.Company, "company", "", "company name")
	fs.StringVar(&req.SMSCode, "code", "", "sms verification code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session.Register(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s; run `%s` to sign in\n", req.Username, a.cfg.GetLoginEntryPoint())
	return nil
}
