package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/target/recon-console/internal/adapters/authroles"
	"github.com/target/recon-console/internal/adapters/devauth"
	domainauth "github.com/target/recon-console/internal/domain/auth"
)

const minPasswordLen = 8

func runHashPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword(cmdCtx.In)
	if err != nil {
		return err
	}
	hash, err := devauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return writeln(cmdCtx.Out, hash)
}

// readPassword takes the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return password, nil
}

type mintOptions struct {
	UserID string
	Name   string
	Email  string
	Groups string
	TTL    time.Duration
}

func parseMintFlags(args []string, defaults devauthDefaults) (mintOptions, error) {
	fs := flag.NewFlagSet("mint-dev-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts mintOptions
	fs.StringVar(&opts.UserID, "user-id", defaults.UserID, "Subject of the token")
	fs.StringVar(&opts.Name, "name", defaults.Name, "Display name claim")
	fs.StringVar(&opts.Email, "email", defaults.Email, "Email claim")
	fs.StringVar(&opts.Groups, "groups", strings.Join(defaults.Groups, ";"), "Semicolon-separated group claims")
	fs.DurationVar(&opts.TTL, "ttl", defaults.TTL, "Token lifetime")

	if err := fs.Parse(args); err != nil {
		return mintOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	if opts.UserID == "" {
		return mintOptions{}, errors.New("--user-id is required")
	}
	if opts.TTL <= 0 {
		return mintOptions{}, errors.New("--ttl must be greater than zero")
	}
	return opts, nil
}

type devauthDefaults struct {
	UserID string
	Name   string
	Email  string
	Groups []string
	TTL    time.Duration
}

func runMintDevToken(cmdCtx *commandContext, args []string) error {
	dev := cmdCtx.Config.Auth.DevAuth
	opts, err := parseMintFlags(args, devauthDefaults{
		UserID: dev.UserID, Name: dev.Name, Email: dev.Email, Groups: dev.Groups, TTL: dev.TokenTTL,
	})
	if err != nil {
		return err
	}

	issuer, err := devauth.NewTokenIssuer(dev.TokenSecret, opts.TTL)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	token, err := issuer.Mint(domainauth.Identity{
		UserID:      opts.UserID,
		DisplayName: opts.Name,
		Email:       opts.Email,
		Groups:      splitGroups(opts.Groups),
	}, time.Now())
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	return writeln(cmdCtx.Out, token)
}

func runMapRoles(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("map-roles", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	groups := fs.String("groups", "", "Semicolon-separated directory groups (bare names or LDAP DNs)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	roles := authroles.NewGroupMapper(cmdCtx.Config.Auth.Roles).Map(splitGroups(*groups))
	if len(roles) == 0 {
		return writeln(cmdCtx.Out, "no roles granted")
	}
	for _, r := range roles {
		if err := writef(cmdCtx.Out, "%-10s %s\n", r, r.LandingPath()); err != nil {
			return err
		}
	}
	return nil
}

func splitGroups(raw string) []string {
	var out []string
	for _, g := range strings.Split(raw, ";") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
