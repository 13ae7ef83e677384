package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/repo"
	"github.com/scamdefender/sheriff/internal/biz/usecase"
	"github.com/scamdefender/sheriff/internal/conf"
	"github.com/scamdefender/sheriff/internal/data"
	"github.com/scamdefender/sheriff/internal/mcp"
)

const version = "0.1.0"

// sheriff-mcp serves the classification gateway over MCP stdio so prompts and
// keyword lists can be tried from an MCP client. Stdout carries the protocol;
// logs go to stderr.
func main() {
	app := &cli.App{
		Name:    "sheriff-mcp",
		Usage:   "MCP server exposing the sheriff classifiers",
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
	_ = godotenv.Load(cctx.String("env-file"))

	cfg := conf.LoadFromEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	opts := data.BackendOptions{RPS: cfg.Backend.RPS}
	var backend repo.BackendRepo
	switch cfg.Backend.Kind {
	case conf.BackendOllama:
		backend = data.NewOllamaRepo(cfg.Backend.OllamaBaseURL, opts, logger)
	case conf.BackendOpenAI:
		if cfg.Backend.OpenAIAPIKey == "" {
			return cli.Exit("Invalid config: OPENAI_API_KEY: required", 1)
		}
		backend = data.NewOpenAIRepo(cfg.Backend.OpenAIAPIKey, cfg.Backend.OpenAIBaseURL, opts, logger)
	default:
		return cli.Exit(fmt.Sprintf("Invalid config: BACKEND: unsupported backend %q", cfg.Backend.Kind), 1)
	}

	classifier := usecase.NewClassifierUsecase(backend, data.NewURLImageRepo(logger), cfg.ToClassifierConfig(), logger)

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving classifier tools on stdio", zap.String("backend", cfg.Backend.Kind))
	return mcp.NewServer(classifier, version).Run(ctx)
}
