package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// Reply markers understood by the moderation prompts
const (
	markerSafe     = "SAFE"
	markerUnsafe   = "UNSAFE"
	markerExplicit = "!!!UNSAFE!!!"
	markerNone     = "none"
)

// replyRule inspects a trimmed backend reply and returns a verdict when it applies
type replyRule func(reply string) (domain.Verdict, bool)

// replyGrammar turns free-form backend output into a verdict.
// Rules are evaluated in order and the first match wins; the last rule always matches.
type replyGrammar struct {
	explicitReason string // explicit unsafe marker anywhere in the reply
	defaultReason  string // UNSAFE without a usable reason
	fallbackReason string // non-empty reply in an unknown format
}

var contentGrammar = replyGrammar{
	explicitReason: "Potentially inappropriate or scammy content",
	defaultReason:  "inappropriate content",
	fallbackReason: "Unrecognized response format - treating as potentially unsafe",
}

var usernameGrammar = replyGrammar{
	explicitReason: "Potentially inappropriate username",
	defaultReason:  "inappropriate username",
	fallbackReason: "Unrecognized username check response - treating with caution",
}

func (g replyGrammar) rules() []replyRule {
	return []replyRule{
		g.explicitMarker,
		g.safePrefix,
		g.unsafePrefix,
		g.emptyReply,
		g.formatFallback,
	}
}

// parse applies the rules to a raw backend reply
func (g replyGrammar) parse(raw string) domain.Verdict {
	reply := strings.TrimSpace(raw)
	for _, rule := range g.rules() {
		if v, ok := rule(reply); ok {
			return v
		}
	}
	// unreachable: formatFallback always matches
	return domain.FallbackVerdict(g.fallbackReason)
}

func (g replyGrammar) explicitMarker(reply string) (domain.Verdict, bool) {
	if strings.Contains(strings.ToUpper(reply), markerExplicit) {
		return domain.UnsafeVerdict(g.explicitReason), true
	}
	return domain.Verdict{}, false
}

func (g replyGrammar) safePrefix(reply string) (domain.Verdict, bool) {
	if hasMarkerPrefix(reply, markerSafe) {
		return domain.SafeVerdict(), true
	}
	return domain.Verdict{}, false
}

func (g replyGrammar) unsafePrefix(reply string) (domain.Verdict, bool) {
	if !hasMarkerPrefix(reply, markerUnsafe) {
		return domain.Verdict{}, false
	}
	reason := g.defaultReason
	if _, after, found := strings.Cut(reply, ":"); found {
		if after = strings.TrimSpace(after); after != "" {
			reason = after
		}
	}
	return domain.UnsafeVerdict(reason), true
}

func (g replyGrammar) emptyReply(reply string) (domain.Verdict, bool) {
	if reply == "" || strings.EqualFold(reply, markerNone) {
		return domain.SafeVerdict(), true
	}
	return domain.Verdict{}, false
}

func (g replyGrammar) formatFallback(reply string) (domain.Verdict, bool) {
	return domain.FallbackVerdict(g.fallbackReason), true
}

// hasMarkerPrefix reports whether reply starts with marker as a whole word:
// the marker must be followed by end of reply, whitespace or punctuation.
func hasMarkerPrefix(reply, marker string) bool {
	if len(reply) < len(marker) || !strings.EqualFold(reply[:len(marker)], marker) {
		return false
	}
	next, size := utf8.DecodeRuneInString(reply[len(marker):])
	return size == 0 || unicode.IsSpace(next) || unicode.IsPunct(next)
}
