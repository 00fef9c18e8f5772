package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// TermAuth implements gotd's auth.UserAuthenticator against a terminal,
// prompting for phone, login code and the 2FA password during onboarding.
type TermAuth struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTermAuth(in io.Reader, out io.Writer) *TermAuth {
	return &TermAuth{in: bufio.NewReader(in), out: out}
}

func (a *TermAuth) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *TermAuth) Phone(_ context.Context) (string, error) {
	return a.prompt("Phone number (e.g. +1234567890)")
}

func (a *TermAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.prompt("Login code sent to Telegram")
}

func (a *TermAuth) Password(_ context.Context) (string, error) {
	return a.prompt("Two-factor password")
}

func (a *TermAuth) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	return &auth.SignUpRequired{TermsOfService: tos}
}

func (a *TermAuth) SignUp(context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up not supported")
}
