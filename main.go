// main.go
//
// Entry point for the Imparo Giocando server.
//   - Load configuration (.env + environment) and set up logging.
//   - Build the challenge provider (generative backend when API_KEY is set,
//     built-in fallback otherwise).
//   - Serve the page and API until SIGINT/SIGTERM; sweep idle client shells.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/imparo/assets"
	"github.com/robalobadob/imparo/internal/challenge"
	"github.com/robalobadob/imparo/internal/config"
	"github.com/robalobadob/imparo/internal/httpserver"
	"github.com/robalobadob/imparo/internal/shell"
	"github.com/robalobadob/imparo/internal/speech"
	"github.com/robalobadob/imparo/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg)

	catalog, err := assets.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load copy catalogue")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := challenge.NewProvider(newGenerator(ctx, cfg),
		challenge.WithAlphabet(catalog.Alphabet),
		challenge.WithPlaceholder(cfg.PlaceholderImageURL),
		challenge.WithTimeout(cfg.ProviderTimeout),
	)

	shells := store.NewMemoryStore()
	srv := httpserver.New(shells, httpserver.Options{
		ClientOrigin:  cfg.ClientOrigin,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    time.Duration(cfg.SessionExpiresDays) * 24 * time.Hour,
		Secure:        cfg.Production(),
		NewShell: func() *shell.Shell {
			return shell.New(shell.Options{
				Words:        provider,
				Math:         provider,
				ResetDelay:   cfg.WordResetDelay,
				CanvasWidth:  cfg.CanvasWidth,
				CanvasHeight: cfg.CanvasHeight,
			}, speech.New(cfg.SpeechEnabled, cfg.SpeechLocale))
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx, cfg.Addr())
	})
	g.Go(func() error {
		sweepIdle(gctx, shells, cfg.ClientIdleTimeout)
		return nil
	})

	log.Info().Str("port", cfg.Port).Bool("speech", cfg.SpeechEnabled).Msg("starting imparo")
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newGenerator returns the generative backend, or nil (always fall back)
// when no API key is configured.
func newGenerator(ctx context.Context, cfg config.Config) challenge.Generator {
	if cfg.APIKey == "" {
		log.Warn().Msg("API_KEY not set; every challenge uses the built-in fallback")
		return nil
	}
	gen, err := challenge.NewGenAI(ctx, cfg.APIKey, cfg.TextModel, cfg.ImageModel)
	if err != nil {
		log.Warn().Err(err).Msg("generative backend unavailable; using the built-in fallback")
		return nil
	}
	return gen
}

// sweepIdle drops shells of clients that went away.
func sweepIdle(ctx context.Context, shells store.Store, idle time.Duration) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := shells.Sweep(idle); n > 0 {
				log.Info().Int("dropped", n).Int("live", shells.Len()).Msg("swept idle clients")
			}
		}
	}
}
