package room

import (
	"fmt"
	"log/slog"

	"github.com/Monadical-SAS/reflector-room/pkg/embed"
	"github.com/Monadical-SAS/reflector-room/pkg/embed/hosted"
	"github.com/Monadical-SAS/reflector-room/pkg/embed/livekit"
	"github.com/Monadical-SAS/reflector-room/pkg/embed/mock"
)

// NewEmbed builds the configured vendor embed adapter.
func NewEmbed(cfg EmbedConfig, log *slog.Logger) (embed.Embed, error) {
	switch cfg.Provider {
	case "mock", "":
		return mock.New(), nil
	case "hosted":
		return hosted.FromSettings(cfg.Settings, log)
	case "livekit":
		return livekit.FromSettings(cfg.Settings, log)
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.Provider)
	}
}
