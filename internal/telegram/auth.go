package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// terminalAuth prompts on stdin for the interactive parts of the login flow.
// It only runs on the first invocation; afterwards the stored session is used.
type terminalAuth struct{}

func (terminalAuth) Phone(_ context.Context) (string, error) {
	fmt.Print("Phone number: ")
	return readLine()
}

func (terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Login code: ")
	return readLine()
}

func (terminalAuth) Password(_ context.Context) (string, error) {
	fmt.Print("2FA password: ")
	return readLine()
}

func (terminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("signing up new accounts is not supported")
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
