package domain

import "time"

// ActionKind is the kind of moderation action
type ActionKind string

const (
	ActionWarn           ActionKind = "warn"
	ActionBan            ActionKind = "ban"
	ActionDeleteUsername ActionKind = "delete_username"
)

// BanThreshold is the offense count at which a user is banned
const BanThreshold = 3

// ModerationAction is the action selected for a violation (value object)
type ModerationAction struct {
	Kind   ActionKind
	Strike int // 1 or 2 for warnings, BanThreshold for bans, 0 for username deletions
}

// Decide maps an offense count to an action.
// The caller owns the ledger and must reset it after a ban.
func Decide(count int) ModerationAction {
	switch {
	case count >= BanThreshold:
		return ModerationAction{Kind: ActionBan, Strike: BanThreshold}
	case count == 2:
		return ModerationAction{Kind: ActionWarn, Strike: 2}
	default:
		return ModerationAction{Kind: ActionWarn, Strike: 1}
	}
}

// UsernameAction is the one-off action for an inappropriate display name
func UsernameAction() ModerationAction {
	return ModerationAction{Kind: ActionDeleteUsername}
}

// IsBan reports whether the action bans the user
func (a ModerationAction) IsBan() bool {
	return a.Kind == ActionBan
}

// PinDuration returns how long the notice for this action stays pinned
func (a ModerationAction) PinDuration() time.Duration {
	return PinDurationFor(a.Kind)
}
