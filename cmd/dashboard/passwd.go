package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"dashboard/internal/app"
)

// runPasswd changes the password of an account after authenticating an
// administrator against the local credential store.
func runPasswd(args []string) error {
	cfg, fs, err := loadConfig("dashboard passwd", args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: dashboard passwd [flags] <username>")
	}
	target := fs.Arg(0)

	ctx := context.Background()
	env, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.close()

	in := bufio.NewReader(os.Stdin)
	fmt.Fprint(os.Stderr, "Admin username [admin]: ")
	adminName, _ := in.ReadString('\n')
	adminName = strings.TrimSpace(adminName)
	if adminName == "" {
		adminName = "admin"
	}
	adminPass, err := readSecret("Admin password: ")
	if err != nil {
		return err
	}
	res, err := env.local.Authenticate(ctx, adminName, adminPass)
	if err != nil {
		return err
	}

	acct, err := env.creds.FindActive(ctx, target)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}

	pw, err := readSecret(fmt.Sprintf("New password for %s: ", target))
	if err != nil {
		return err
	}
	again, err := readSecret("Repeat new password: ")
	if err != nil {
		return err
	}
	if !app.ConstantTimeCompare(pw, again) {
		return errors.New("passwords do not match")
	}

	if err := env.users.ChangePassword(ctx, &res.User, acct.ID, pw); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "password updated for %s\n", target)
	return nil
}

func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
