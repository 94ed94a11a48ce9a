package app

import (
	"github.com/nadzzz/readmebot/internal/transport"
	grpctransport "github.com/nadzzz/readmebot/internal/transport/grpc"
	httptransport "github.com/nadzzz/readmebot/internal/transport/http"
	"github.com/nadzzz/readmebot/internal/transport/telegram"
)

func (a *App) buildTransports() ([]transport.Transport, error) {
	cfg := a.cfg.Transports
	maxBytes := int64(a.cfg.Conversation.MaxAudioBytes)

	var out []transport.Transport
	if cfg.HTTP.Enabled {
		out = append(out, httptransport.New(cfg.HTTP.Port, maxBytes))
	}
	if cfg.GRPC.Enabled {
		out = append(out, grpctransport.New(cfg.GRPC.Port))
	}
	if cfg.Telegram.Enabled {
		tg, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.PollTimeout, maxBytes, cfg.Telegram.Debug)
		if err != nil {
			return nil, err
		}
		out = append(out, tg)
	}
	return out, nil
}
