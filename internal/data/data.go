package data

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/repo"
	"github.com/scamdefender/sheriff/internal/infra/feishu"
)

// Repositories contains all repositories
type Repositories struct {
	Platform repo.PlatformRepo
	Images   repo.ImageRepo
	Backend  repo.BackendRepo
	Ledger   repo.LedgerRepo
	Pins     repo.PinRepo
}

// Close releases repository resources
func (r *Repositories) Close() error {
	if r.Pins != nil {
		return r.Pins.Close()
	}
	return nil
}

// NewDiscordRepositories creates all repositories for a Discord session
func NewDiscordRepositories(session *discordgo.Session, backend repo.BackendRepo, pinDBPath string, logger *zap.Logger) (*Repositories, error) {
	platform := NewDiscordRepo(session, logger)
	return newRepositories(platform, platform, backend, pinDBPath)
}

// NewFeishuRepositories creates all repositories for a Feishu client
func NewFeishuRepositories(client *feishu.Client, backend repo.BackendRepo, pinDBPath string, logger *zap.Logger) (*Repositories, error) {
	platform := NewFeishuRepo(client, logger)
	return newRepositories(platform, platform, backend, pinDBPath)
}

func newRepositories(platform repo.PlatformRepo, images repo.ImageRepo, backend repo.BackendRepo, pinDBPath string) (*Repositories, error) {
	pins, err := NewPinRepo(pinDBPath)
	if err != nil {
		return nil, fmt.Errorf("open pin store: %w", err)
	}
	return &Repositories{
		Platform: platform,
		Images:   images,
		Backend:  backend,
		Ledger:   NewLedgerRepo(),
		Pins:     pins,
	}, nil
}
