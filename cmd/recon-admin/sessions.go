package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/target/recon-console/internal/adapters/redis"
	"github.com/target/recon-console/internal/bootstrap"
	domainauth "github.com/target/recon-console/internal/domain/auth"
)

const sessionCommandTimeout = 2 * time.Minute

type listSessionsOptions struct {
	UserID string
	Role   string
	JSON   bool
}

type clearSessionsOptions struct {
	DryRun bool
	Yes    bool
}

// sessionLister is the part of the session store the CLI reads.
type sessionLister interface {
	List(ctx context.Context) ([]domainauth.Session, error)
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listSessionsOptions
	fs.StringVar(&opts.UserID, "user-id", "", "Only sessions for this user")
	fs.StringVar(&opts.Role, "role", "", "Only sessions whose active role matches")
	fs.BoolVar(&opts.JSON, "json", false, "Print sessions as JSON (tokens redacted)")
	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	opts.Role = strings.ToLower(strings.TrimSpace(opts.Role))
	if opts.Role != "" && !domainauth.Role(opts.Role).Valid() {
		return listSessionsOptions{}, fmt.Errorf("unknown role %q", opts.Role)
	}
	return opts, nil
}

func parseClearSessionsFlags(args []string) (clearSessionsOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts clearSessionsOptions
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Count sessions without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return clearSessionsOptions{}, err
	}
	return opts, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectSessions(cmdCtx *commandContext) (*redisadapter.SessionStore, redis.UniversalClient, error) {
	client, err := bootstrap.ConnectRedis(cmdCtx.Ctx, cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	store, err := bootstrap.NewSessionStore(client, cmdCtx.Config.Redis)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, client, nil
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, sessionCommandTimeout)
	defer cancel()

	store, client, err := connectSessions(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	sessions, err := filterSessions(ctx, store, opts)
	if err != nil {
		return err
	}
	return printSessions(cmdCtx, sessions, opts.JSON)
}

func filterSessions(ctx context.Context, store sessionLister, opts listSessionsOptions) ([]domainauth.Session, error) {
	all, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]domainauth.Session, 0, len(all))
	for _, s := range all {
		if opts.UserID != "" && s.UserID != opts.UserID {
			continue
		}
		if opts.Role != "" && string(s.ActiveRole) != opts.Role {
			continue
		}
		s.AccessToken = ""
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out, nil
}

func printSessions(cmdCtx *commandContext, sessions []domainauth.Session, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmdCtx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}
	if len(sessions) == 0 {
		return writeln(cmdCtx.Out, "no live sessions")
	}

	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	if err := writef(tw, "SESSION\tUSER\tACTIVE ROLE\tROLES\tEXPIRES\n"); err != nil {
		return err
	}
	for _, s := range sessions {
		roles := make([]string, 0, len(s.Roles))
		for _, r := range s.Roles {
			roles = append(roles, string(r))
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			shortID(s.ID), s.UserID, s.ActiveRole, strings.Join(roles, ","),
			s.ExpiresAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "\n%d session(s)\n", len(sessions))
}

// shortID keeps enough of a session id to tell rows apart without printing a
// usable cookie value.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "…"
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, sessionCommandTimeout)
	defer cancel()

	store, client, err := connectSessions(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	live, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if opts.DryRun {
		return writef(cmdCtx.Out, "dry run: %d live session(s) would be deleted\n", len(live))
	}
	if !opts.Yes {
		if err := confirm(cmdCtx, fmt.Sprintf("Delete %d live session(s)? Every signed-in user will be signed out.", len(live))); err != nil {
			return err
		}
	}

	removed, err := store.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	cmdCtx.Logger.Info("clear sessions complete", "keys_deleted", removed)
	return writef(cmdCtx.Out, "deleted %d session key(s)\n", removed)
}

var errAborted = errors.New("aborted")

func confirm(cmdCtx *commandContext, prompt string) error {
	if err := writef(cmdCtx.Out, "%s [y/N]: ", prompt); err != nil {
		return err
	}
	answer, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
	if err != nil && answer == "" {
		return errAborted
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
