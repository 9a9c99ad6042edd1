package token

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/store"
)

// Manager issues, validates, and retires the single-use action tokens bound
// to warnings.
type Manager struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewManager creates a token manager.
func NewManager(s store.Store, log *zap.Logger) *Manager {
	return &Manager{store: s, log: log, now: time.Now}
}

// Issue generates a fresh token for the warning and links the two. The
// content is a random UUID, so it carries 122 bits of entropy and cannot be
// guessed.
func (m *Manager) Issue(ctx context.Context, warning *model.Warning) (*model.Token, error) {
	content := uuid.NewString()
	token := &model.Token{
		Content:   content,
		Consumed:  false,
		WarningID: &warning.ID,
	}
	if err := m.store.SaveToken(ctx, token); err != nil {
		return nil, err
	}

	warning.TokenContent = &content
	if err := m.store.SaveWarning(ctx, warning); err != nil {
		return nil, err
	}
	return token, nil
}

// Validate reports whether a token with the given content exists and has not
// been consumed.
func (m *Manager) Validate(ctx context.Context, content string) bool {
	token, err := m.store.TokenByContent(ctx, content)
	if err != nil {
		return false
	}
	return !token.Consumed
}

// Consume marks the token used and severs its live link to the warning. The
// row itself stays for the grace period so replayed links can be recognized
// and rejected.
func (m *Manager) Consume(ctx context.Context, content string) error {
	token, err := m.store.TokenByContent(ctx, content)
	if err != nil {
		return err
	}
	now := m.now()
	token.Consumed = true
	token.ConsumedAt = &now
	token.WarningID = nil
	return m.store.SaveToken(ctx, token)
}

// Reconcile aligns a warning's token with its status: a warning entering the
// unseen state without a token gets one issued, and a confirmed or ignored
// warning has its token consumed. Drafts stay tokenless until they escalate,
// there is nothing for a user to act on yet.
func (m *Manager) Reconcile(ctx context.Context, warning *model.Warning) error {
	if warning.TokenContent == nil {
		if warning.Status != model.WarningUnseen {
			return nil
		}
		_, err := m.Issue(ctx, warning)
		return err
	}
	if warning.Status == model.WarningConfirmed || warning.Status == model.WarningIgnored {
		return m.Consume(ctx, *warning.TokenContent)
	}
	return nil
}

// PurgeConsumed deletes consumed tokens older than the grace window. Pure
// cleanup: running it at any cadence at or above the action window is safe.
func (m *Manager) PurgeConsumed(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := m.now().Add(-grace)
	purged, err := m.store.PurgeConsumedTokens(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		m.log.Info("purged consumed tokens", zap.Int64("count", purged))
	}
	return purged, nil
}
