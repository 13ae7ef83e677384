package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// Check names used in logs and metrics
const (
	checkText     = "text"
	checkUsername = "username"
	checkImage    = "image"
)

// ClassifierConfig contains classification gateway configuration
type ClassifierConfig struct {
	TextModel              string
	VisionModel            string
	ContentPrompt          string
	UsernamePrompt         string
	ImageDescriptionPrompt string
	ScamKeywords           []string
	UnsafeSubjects         []string
}

// ClassifierUsecase turns text, usernames and images into verdicts.
// Every operation fails open: backend or download failures yield a safe verdict.
type ClassifierUsecase struct {
	backend repo.BackendRepo
	images  repo.ImageRepo
	cfg     ClassifierConfig
	screen  *imageScreen
	logger  *zap.Logger
}

// NewClassifierUsecase creates a new classifier usecase
func NewClassifierUsecase(
	backend repo.BackendRepo,
	images repo.ImageRepo,
	cfg ClassifierConfig,
	logger *zap.Logger,
) *ClassifierUsecase {
	return &ClassifierUsecase{
		backend: backend,
		images:  images,
		cfg:     cfg,
		screen:  newImageScreen(cfg.ScamKeywords, cfg.UnsafeSubjects),
		logger:  logger.Named("classifier"),
	}
}

// ClassifyText classifies a chat message
func (uc *ClassifierUsecase) ClassifyText(ctx context.Context, text string) domain.Verdict {
	return uc.classify(ctx, checkText, text,
		fmt.Sprintf("%s\n\nMessage to analyze: %s", uc.cfg.ContentPrompt, text),
		contentGrammar)
}

// ClassifyUsername classifies a display name
func (uc *ClassifierUsecase) ClassifyUsername(ctx context.Context, name string) domain.Verdict {
	return uc.classify(ctx, checkUsername, name,
		fmt.Sprintf("%s\n\nUsername to analyze: %s", uc.cfg.UsernamePrompt, name),
		usernameGrammar)
}

func (uc *ClassifierUsecase) classify(ctx context.Context, check, input, prompt string, grammar replyGrammar) domain.Verdict {
	if strings.TrimSpace(input) == "" {
		return domain.SafeVerdict()
	}

	reply, err := uc.backend.Generate(ctx, repo.GenerateRequest{
		Model:       uc.cfg.TextModel,
		Prompt:      prompt,
		Temperature: repo.Temperature(0),
	})
	if err != nil {
		uc.logger.Error("backend error, treating as safe", zap.String("check", check), zap.Error(err))
		failOpenCount.WithLabelValues(check).Inc()
		return domain.SafeVerdict()
	}

	v := grammar.parse(reply)
	if v.Kind == domain.VerdictFormatFallback {
		uc.logger.Warn("unexpected moderation result format", zap.String("check", check), zap.String("result", reply))
	}
	uc.logger.Info("analyzed",
		zap.String("check", check),
		zap.String("input", truncate(input, 30)),
		zap.String("result", strings.TrimSpace(reply)),
		zap.Stringer("kind", v.Kind),
	)
	verdictCount.WithLabelValues(check, v.Kind.String()).Inc()
	return v
}

// ClassifyImage downloads an image attachment, describes it with the vision model and classifies the description
func (uc *ClassifierUsecase) ClassifyImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) domain.Verdict {
	logger := uc.logger.With(zap.String("attachment", att.ID))

	data, err := uc.images.FetchImage(ctx, msg, att)
	if err != nil {
		logger.Error("failed to download image, treating as safe", zap.Error(err))
		failOpenCount.WithLabelValues(checkImage).Inc()
		return domain.SafeVerdict()
	}
	logger.Debug("image downloaded", zap.Int("bytes", len(data)))

	description, err := uc.backend.Generate(ctx, repo.GenerateRequest{
		Model:  uc.cfg.VisionModel,
		Prompt: uc.cfg.ImageDescriptionPrompt,
		Images: [][]byte{data},
	})
	if err != nil {
		logger.Error("vision backend error, treating as safe", zap.Error(err))
		failOpenCount.WithLabelValues(checkImage).Inc()
		return domain.SafeVerdict()
	}

	description = strings.TrimSpace(description)
	if description == "" {
		logger.Warn("empty image description, treating as safe")
		return domain.SafeVerdict()
	}
	logger.Debug("image described", zap.String("description", truncate(description, 100)))

	v := uc.describeVerdict(ctx, description)
	verdictCount.WithLabelValues(checkImage, v.Kind.String()).Inc()
	logger.Info("image analyzed", zap.Bool("safe", v.Safe), zap.String("reason", v.Reason))
	return v
}

// describeVerdict classifies an image description: vocabulary screen first, text classification as catch-all
func (uc *ClassifierUsecase) describeVerdict(ctx context.Context, description string) domain.Verdict {
	if v, ok := uc.screen.screen(description); ok {
		return v
	}

	v := uc.ClassifyText(ctx, description)
	if v.Safe {
		return v
	}
	return v.WithReason("Image may contain " + v.Reason)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
