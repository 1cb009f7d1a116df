// Package resolver turns an inbound chat message into exactly one reply,
// enforcing the unlock gate, the lifetime quota and the subject scope.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/finmatbot/internal/ai"
	"github.com/edgard/finmatbot/internal/archive"
	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/database"
	"github.com/edgard/finmatbot/internal/logger"
	"github.com/edgard/finmatbot/internal/metrics"
	"github.com/edgard/finmatbot/internal/query"
)

// Provenance tags where a reply came from.
type Provenance string

// Reply provenances.
const (
	ProvenanceOfficial   Provenance = "official"
	ProvenanceAIEstimate Provenance = "ai-estimate"
	ProvenanceBlocked    Provenance = "blocked"
	ProvenanceSystem     Provenance = "system"
)

// Outcomes recorded in log metadata and metrics.
const (
	OutcomeCommand         = "command"
	OutcomeLocked          = "locked"
	OutcomeQuotaExceeded   = "quota_exceeded"
	OutcomeOutOfScope      = "out_of_scope"
	OutcomeOfficialArchive = "official_archive"
	OutcomeAIFallback      = "ai_fallback"
	OutcomeAIGeneric       = "ai_generic"
	OutcomeProviderError   = "provider_error"
)

// Reply is the single outbound message produced for an inbound one.
type Reply struct {
	Text       string
	Provenance Provenance
	Outcome    string
}

// Inbound is a text message as seen by the transport.
type Inbound struct {
	ChatID  int64
	Profile database.Profile
	Text    string
}

// Ledger is the subset of database.Store the pipeline needs.
type Ledger interface {
	GetOrCreateUser(ctx context.Context, profile database.Profile) (*database.User, error)
	MarkVerified(ctx context.Context, userID int64) error
	ConsumeQuota(ctx context.Context, userID int64, ceiling int, entry *database.MessageLog) (int, error)
	AppendLog(ctx context.Context, entry *database.MessageLog) error
}

// Archive looks up official records.
type Archive interface {
	Lookup(date string, exercise int) (archive.Record, bool)
}

// Answerer produces AI-estimated answers.
type Answerer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// Sender delivers a formatted reply to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Resolver wires the gates, the archive and the AI fallback together.
type Resolver struct {
	cfg      *config.Config
	ledger   Ledger
	archive  Archive
	answerer Answerer
	sender   Sender
	log      *slog.Logger
}

// New creates a Resolver. The sender may be nil when only Resolve is used.
func New(cfg *config.Config, ledger Ledger, arch Archive, answerer Answerer, sender Sender, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		cfg:      cfg,
		ledger:   ledger,
		archive:  arch,
		answerer: answerer,
		sender:   sender,
		log:      log.With("component", "resolver"),
	}
}

// Handle loads or creates the user, resolves the message and delivers the reply.
// Side effects of the resolution are kept when delivery fails.
func (r *Resolver) Handle(ctx context.Context, in Inbound) error {
	user, err := r.ledger.GetOrCreateUser(ctx, in.Profile)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", in.Profile.ID, err)
	}

	reply, err := r.Resolve(ctx, user, in.Text)
	if err != nil {
		return err
	}

	if err := r.sender.Send(ctx, in.ChatID, reply.Text); err != nil {
		metrics.DeliveryFailuresTotal.Inc()
		r.log.ErrorContext(ctx, "Failed to deliver reply",
			"user_id", user.ID,
			"chat_id", in.ChatID,
			"outcome", reply.Outcome,
			"error", err)
		return fmt.Errorf("failed to deliver reply: %w", err)
	}
	return nil
}

// Resolve decides the reply for text and applies its ledger side effects.
// Commands are checked first, then the unlock, quota and scope gates.
// Storage errors are returned without a reply.
func (r *Resolver) Resolve(ctx context.Context, user *database.User, text string) (Reply, error) {
	text = strings.TrimSpace(text)

	reply, err := r.resolve(ctx, user, text)
	if err != nil {
		return Reply{}, err
	}

	metrics.ResolutionsTotal.WithLabelValues(reply.Outcome).Inc()
	r.log.DebugContext(ctx, "Message resolved",
		"user_id", user.ID,
		"outcome", reply.Outcome,
		"provenance", reply.Provenance,
		"text_preview", logger.TruncateString(text, 50))
	return reply, nil
}

func (r *Resolver) resolve(ctx context.Context, user *database.User, text string) (Reply, error) {
	if cmd, ok := matchCommand(text); ok {
		return cmd.run(ctx, r, user, text)
	}

	if !user.IsVerified {
		return r.blocked(OutcomeLocked, r.cfg.Messages.Locked, user), nil
	}

	if user.TotalUsed >= r.cfg.Course.TotalQuota {
		return r.rejectQuota(ctx, user, text)
	}

	if !query.InScope(text) {
		entry := database.NewMessageLog(user.ID, text, database.LogKindBlocked, database.LogMeta{Reason: OutcomeOutOfScope})
		if err := r.ledger.AppendLog(ctx, entry); err != nil {
			return Reply{}, fmt.Errorf("failed to log out-of-scope message: %w", err)
		}
		return r.blocked(OutcomeOutOfScope, r.cfg.Messages.OutOfScope, user), nil
	}

	q := query.Parse(text)
	if q.Complete() {
		if rec, ok := r.archive.Lookup(q.Date, q.Exercise); ok {
			reply := Reply{
				Text:       officialReply(q, rec),
				Provenance: ProvenanceOfficial,
				Outcome:    OutcomeOfficialArchive,
			}
			meta := database.LogMeta{Source: OutcomeOfficialArchive, Date: q.Date, Exercise: q.Exercise}
			return r.commit(ctx, user, text, reply, meta)
		}
		return r.estimate(ctx, user, text, ai.ArchiveMissPrompt(q.Date, q.Exercise), OutcomeAIFallback, q)
	}

	return r.estimate(ctx, user, text, text, OutcomeAIGeneric, q)
}

// estimate asks the AI fallback and commits the answer. A provider failure
// is logged as an error entry without consuming quota.
func (r *Resolver) estimate(ctx context.Context, user *database.User, text, prompt, outcome string, q query.Query) (Reply, error) {
	start := time.Now()
	answer, err := r.answerer.Answer(ctx, prompt)
	metrics.ProviderDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		r.log.ErrorContext(ctx, "AI fallback failed", "user_id", user.ID, "source", outcome, "error", err)
		meta := database.LogMeta{Reason: OutcomeProviderError, Source: outcome, Date: q.Date, Exercise: q.Exercise, Error: err.Error()}
		entry := database.NewMessageLog(user.ID, text, database.LogKindError, meta)
		if logErr := r.ledger.AppendLog(ctx, entry); logErr != nil {
			return Reply{}, errors.Join(fmt.Errorf("failed to log provider error: %w", logErr), err)
		}
		return Reply{Text: r.cfg.Render(r.cfg.Messages.ProviderError, user.TotalUsed), Provenance: ProvenanceSystem, Outcome: OutcomeProviderError}, nil
	}

	reply := Reply{Text: estimateReply(answer), Provenance: ProvenanceAIEstimate, Outcome: outcome}
	return r.commit(ctx, user, text, reply, database.LogMeta{Source: outcome, Date: q.Date, Exercise: q.Exercise})
}

// commit consumes one unit of quota together with the reply log entry. When
// a concurrent message took the last unit, the answer is discarded.
func (r *Resolver) commit(ctx context.Context, user *database.User, text string, reply Reply, meta database.LogMeta) (Reply, error) {
	entry := database.NewMessageLog(user.ID, text, database.LogKindReply, meta)
	total, err := r.ledger.ConsumeQuota(ctx, user.ID, r.cfg.Course.TotalQuota, entry)
	if errors.Is(err, database.ErrQuotaExceeded) {
		r.log.InfoContext(ctx, "Quota reached while resolving, discarding answer", "user_id", user.ID, "source", meta.Source)
		return r.rejectQuota(ctx, user, text)
	}
	if err != nil {
		return Reply{}, fmt.Errorf("failed to consume quota: %w", err)
	}

	user.TotalUsed = total
	return reply, nil
}

func (r *Resolver) rejectQuota(ctx context.Context, user *database.User, text string) (Reply, error) {
	entry := database.NewMessageLog(user.ID, text, database.LogKindBlocked, database.LogMeta{Reason: OutcomeQuotaExceeded})
	if err := r.ledger.AppendLog(ctx, entry); err != nil {
		return Reply{}, fmt.Errorf("failed to log quota rejection: %w", err)
	}
	return r.blocked(OutcomeQuotaExceeded, r.cfg.Messages.QuotaExceeded, user), nil
}

func (r *Resolver) blocked(outcome, template string, user *database.User) Reply {
	return Reply{
		Text:       r.cfg.Render(template, user.TotalUsed),
		Provenance: ProvenanceBlocked,
		Outcome:    outcome,
	}
}

func (r *Resolver) system(template string, user *database.User) Reply {
	return Reply{
		Text:       r.cfg.Render(template, user.TotalUsed),
		Provenance: ProvenanceSystem,
		Outcome:    OutcomeCommand,
	}
}
