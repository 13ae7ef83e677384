package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

var (
	securityAlertPattern = regexp.MustCompile(`virus|malware|infected|detected|alert|warning|security`)
	actionRequestPattern = regexp.MustCompile(`call|support|clean|fix|remove`)
)

const techSupportScamReason = "Image appears to be a tech support scam"

// imageCheck inspects a lowercased image description
type imageCheck func(desc string) (domain.Verdict, bool)

// subjectPattern is an unsafe subject with its word-boundary matcher
type subjectPattern struct {
	subject string
	re      *regexp.Regexp
}

// imageScreen runs the vocabulary checks that precede text classification of an image description
type imageScreen struct {
	scamKeywords []string
	subjects     []subjectPattern
}

func newImageScreen(scamKeywords, unsafeSubjects []string) *imageScreen {
	s := &imageScreen{}
	for _, kw := range scamKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			s.scamKeywords = append(s.scamKeywords, kw)
		}
	}
	for _, subject := range unsafeSubjects {
		subject = strings.ToLower(strings.TrimSpace(subject))
		if subject == "" {
			continue
		}
		s.subjects = append(s.subjects, subjectPattern{
			subject: subject,
			re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(subject) + `\b`),
		})
	}
	return s
}

// checks returns the ordered screening checks, most specific first
func (s *imageScreen) checks() []imageCheck {
	return []imageCheck{
		s.techSupportScam,
		s.scamKeyword,
		s.unsafeSubject,
	}
}

// screen returns the first matching verdict. False means the description needs text classification.
func (s *imageScreen) screen(description string) (domain.Verdict, bool) {
	desc := strings.ToLower(description)
	for _, check := range s.checks() {
		if v, ok := check(desc); ok {
			return v, true
		}
	}
	return domain.Verdict{}, false
}

func (s *imageScreen) techSupportScam(desc string) (domain.Verdict, bool) {
	if securityAlertPattern.MatchString(desc) && actionRequestPattern.MatchString(desc) {
		return domain.UnsafeVerdict(techSupportScamReason), true
	}
	return domain.Verdict{}, false
}

func (s *imageScreen) scamKeyword(desc string) (domain.Verdict, bool) {
	for _, kw := range s.scamKeywords {
		if strings.Contains(desc, kw) {
			return domain.UnsafeVerdict(fmt.Sprintf("Image appears to be a scam offering '%s'", kw)), true
		}
	}
	return domain.Verdict{}, false
}

func (s *imageScreen) unsafeSubject(desc string) (domain.Verdict, bool) {
	for _, p := range s.subjects {
		if p.re.MatchString(desc) {
			return domain.UnsafeVerdict(fmt.Sprintf("Image contains inappropriate content: '%s'", p.subject)), true
		}
	}
	return domain.Verdict{}, false
}
