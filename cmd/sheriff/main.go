package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scamdefender/sheriff/internal/api"
	"github.com/scamdefender/sheriff/internal/biz/repo"
	"github.com/scamdefender/sheriff/internal/biz/usecase"
	"github.com/scamdefender/sheriff/internal/conf"
	"github.com/scamdefender/sheriff/internal/data"
	"github.com/scamdefender/sheriff/internal/infra/feishu"
	"github.com/scamdefender/sheriff/internal/server"
	"github.com/scamdefender/sheriff/internal/service"
)

const (
	version         = "0.1.0"
	unpinInterval   = time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	app := &cli.App{
		Name:    "sheriff",
		Usage:   "moderation bot that warns, warns, then bans scammers",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file to load before reading the environment",
				Value: ".env",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cctx *cli.Context) error {
	if err := godotenv.Load(cctx.String("env-file")); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Invalid config: %v", err), 1)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := newBackend(cfg, logger)

	// Platform connection and repositories
	var (
		repos *data.Repositories
		srv   server.Server
		bind  func(server.Dispatcher) server.Server
	)
	switch cfg.Platform {
	case conf.PlatformFeishu:
		client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, logger)
		repos, err = data.NewFeishuRepositories(client, backend, cfg.Pins.DBPath, logger)
		bind = func(d server.Dispatcher) server.Server { return server.NewFeishuServer(client, d, logger) }
	default:
		session, serr := discordgo.New("Bot " + cfg.Discord.Token)
		if serr != nil {
			return cli.Exit(fmt.Sprintf("Invalid Discord token: %v", serr), 1)
		}
		repos, err = data.NewDiscordRepositories(session, backend, cfg.Pins.DBPath, logger)
		bind = func(d server.Dispatcher) server.Server { return server.NewDiscordServer(session, d, logger) }
	}
	if err != nil {
		return fmt.Errorf("create repositories: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Warn("failed to close repositories", zap.Error(err))
		}
	}()

	// Usecases
	persona := cfg.ToPersonaConfig()
	classifierUC := usecase.NewClassifierUsecase(repos.Backend, repos.Images, cfg.ToClassifierConfig(), logger)
	noticeUC := usecase.NewNoticeUsecase(repos.Backend, persona, logger)
	chatUC := usecase.NewChatUsecase(repos.Backend, persona, logger)

	// Services
	scheduler := service.NewUnpinScheduler(repos.Pins, repos.Platform, unpinInterval, logger)
	moderation := service.NewModerationService(classifierUC, noticeUC, chatUC, repos.Platform, repos.Ledger, scheduler, logger)
	srv = bind(moderation)

	var apiServer *api.Server
	if cfg.AdminAddr != "" {
		apiServer = api.NewServer(repos.Ledger, classifierUC, cfg.AdminAddr, logger)
	}

	logger.Info("starting sheriff",
		zap.String("platform", cfg.Platform),
		zap.String("backend", cfg.Backend.Kind),
		zap.String("text_model", cfg.Backend.TextModel),
		zap.String("vision_model", cfg.Backend.VisionModel))

	scheduler.Start(ctx)
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("platform connection: %w", err)
		}
		return nil
	})
	if apiServer != nil {
		g.Go(apiServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return apiServer.Stop(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("shutting down")
	srv.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newBackend(cfg *conf.Config, logger *zap.Logger) repo.BackendRepo {
	opts := data.BackendOptions{RPS: cfg.Backend.RPS}
	if cfg.Backend.Kind == conf.BackendOpenAI {
		return data.NewOpenAIRepo(cfg.Backend.OpenAIAPIKey, cfg.Backend.OpenAIBaseURL, opts, logger)
	}
	return data.NewOllamaRepo(cfg.Backend.OllamaBaseURL, opts, logger)
}
