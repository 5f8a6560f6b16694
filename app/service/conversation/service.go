package conversation

import (
	"context"
	"log/slog"

	"unlockbot/app/client/llm"
	"unlockbot/app/client/telegram"
	"unlockbot/app/config"
	"unlockbot/app/service/ledger"
	"unlockbot/app/service/session"

	"github.com/samber/do"
)

type Service struct {
	store     *session.Store
	backend   Backend
	messenger Messenger
	ledger    *ledger.Service

	policy  Policy
	persona string
	unlock  config.Unlock
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		cfg,
		do.MustInvoke[*session.Store](di),
		do.MustInvoke[*llm.Client](di),
		do.MustInvoke[*telegram.Client](di),
		do.MustInvoke[*ledger.Service](di),
	), nil
}

func NewService(
	cfg *config.Config,
	store *session.Store,
	backend Backend,
	messenger Messenger,
	ledgerSvc *ledger.Service,
) *Service {
	return &Service{
		store:     store,
		backend:   backend,
		messenger: messenger,
		ledger:    ledgerSvc,
		policy: Policy{
			GraceMessages: cfg.Pacing.GraceMessages,
			Cooldown:      cfg.Pacing.Cooldown,
		},
		persona: RenderPersona(cfg.Persona.Prompt, cfg.Persona.UnlockAfter),
		unlock:  cfg.Unlock,
	}
}

// OnUserMessage runs one inbound message through pacing, the backend and dispatch.
// The session lock is never held across a network call.
func (s *Service) OnUserMessage(ctx context.Context, in Inbound) {
	userText := in.UserText()
	sess := s.store.GetOrCreate(in.UserID, in.Now)

	sess.Lock()
	seq := sess.RecordUserTurn(userText, in.Now)

	target := dispatchTarget{in: in, sess: sess, seq: seq}

	if isTooShort(in.Text) {
		sess.Unlock()
		s.dispatch(ctx, target, continueWith(fillerReply))
		return
	}

	verdict := s.policy.Evaluate(sess, in.Now)

	var prompt string
	if verdict.Allowed {
		prompt = BuildPrompt(s.persona, sess.PriorTurns(seq), userText)
	}
	messageCount := sess.MessageCount
	sess.Unlock()

	if !verdict.Allowed {
		slog.Debug("Message deflected by cooldown",
			"user_id", in.UserID,
			"message_count", messageCount,
		)
		s.dispatch(ctx, target, continueWith(verdict.Deflection))
		return
	}

	s.dispatch(ctx, target, s.decide(ctx, in.UserID, prompt))
}

func (s *Service) decide(ctx context.Context, userID int64, prompt string) Decision {
	raw, err := s.backend.Complete(ctx, prompt)
	if err != nil {
		slog.Warn("Backend call failed",
			"user_id", userID,
			"error", err,
		)
		return continueWith(apologyReply)
	}

	decision := ParseDecision(raw)
	if decision.Kind == DecisionMalformed {
		slog.Warn("Backend ignored the reply format",
			"user_id", userID,
			"raw", short(raw),
		)
	}

	return decision
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
