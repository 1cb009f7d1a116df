package resolver

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/edgard/finmatbot/internal/database"
)

type command struct {
	name        string
	description string
	run         func(ctx context.Context, r *Resolver, user *database.User, text string) (Reply, error)
}

// commands are matched in order by case-insensitive prefix.
var commands = []command{
	{name: "start", description: "Istruzioni e sblocco", run: runStart},
	{name: "unlock", description: "Sblocca il bot con la parola-chiave", run: runUnlock},
	{name: "quota", description: "Mostra le risposte usate", run: runQuota},
	{name: "policy", description: "Cosa posso rispondere", run: runPolicy},
	{name: "help", description: "Parla con un tutor", run: runHelp},
}

// MenuEntry is a command shown in the client's command menu.
type MenuEntry struct {
	Command     string
	Description string
}

// Menu lists the supported commands in matching order.
func Menu() []MenuEntry {
	entries := make([]MenuEntry, 0, len(commands))
	for _, c := range commands {
		entries = append(entries, MenuEntry{Command: c.name, Description: c.description})
	}
	return entries
}

func matchCommand(text string) (command, bool) {
	lower := strings.ToLower(text)
	for _, c := range commands {
		if strings.HasPrefix(lower, "/"+c.name) {
			return c, true
		}
	}
	return command{}, false
}

// commandArgument returns the text after the first run of whitespace, trimmed.
func commandArgument(text string) string {
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx:])
}

func runStart(_ context.Context, r *Resolver, user *database.User, _ string) (Reply, error) {
	return r.system(r.cfg.Messages.Welcome, user), nil
}

func runUnlock(ctx context.Context, r *Resolver, user *database.User, text string) (Reply, error) {
	if commandArgument(text) != r.cfg.Course.UnlockSecret {
		r.log.InfoContext(ctx, "Unlock attempt failed", "user_id", user.ID)
		return r.system(r.cfg.Messages.UnlockFailed, user), nil
	}

	if !user.IsVerified {
		if err := r.ledger.MarkVerified(ctx, user.ID); err != nil {
			return Reply{}, fmt.Errorf("failed to verify user %d: %w", user.ID, err)
		}
		user.IsVerified = true
		r.log.InfoContext(ctx, "User unlocked", "user_id", user.ID)
	}
	return r.system(r.cfg.Messages.UnlockOK, user), nil
}

func runQuota(_ context.Context, r *Resolver, user *database.User, _ string) (Reply, error) {
	return r.system(r.cfg.Messages.QuotaStatus, user), nil
}

func runPolicy(_ context.Context, r *Resolver, user *database.User, _ string) (Reply, error) {
	return r.system(r.cfg.Messages.Policy, user), nil
}

func runHelp(_ context.Context, r *Resolver, user *database.User, _ string) (Reply, error) {
	return r.system(r.cfg.Messages.Help, user), nil
}
