package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/IshanjotDhahan7868/BeatBank/internal/artifacts"
	"github.com/IshanjotDhahan7868/BeatBank/internal/ffmpeg"
	"github.com/IshanjotDhahan7868/BeatBank/internal/history"
	"github.com/IshanjotDhahan7868/BeatBank/internal/http/handlers"
	"github.com/IshanjotDhahan7868/BeatBank/internal/http/httpapi"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
	"github.com/IshanjotDhahan7868/BeatBank/internal/pipeline"
	"github.com/IshanjotDhahan7868/BeatBank/internal/poll"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/aivideo"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/dsp"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/image"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/metadata"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/music"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/visualizer"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	recorder := history.New(infra.NewSQLRunner(dbpool, logger))
	if err := recorder.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure history schema")
	}

	sink, err := artifacts.NewFileSink(cfg.ArtifactDir, cfg.ArtifactBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare artifact store")
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	metadataProviders, err := initMetadataProviders(cfg, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure metadata providers")
	}
	imageProviders, err := initImageProviders(cfg, httpClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure image providers")
	}
	musicProviders, err := initMusicProviders(cfg, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure music providers")
	}
	aiVideoProviders, err := initAIVideoProviders(cfg, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure ai video providers")
	}

	mixer := ffmpeg.NewRunner(cfg.FFmpegPath, logger)

	orchestrator, err := pipeline.New(pipeline.Options{
		Metadata:   metadataProviders,
		Image:      imageProviders,
		Music:      musicProviders,
		AIVideo:    aiVideoProviders,
		DSP:        dsp.NewRemote(dsp.Options{BaseURL: cfg.DSPBaseURL}),
		Visualizer: visualizer.NewFFmpeg(mixer),
		Sink:       sink,
		History:    recorder,
		Mixer:      mixer,
		Config: pipeline.Config{
			MaxRetries:        cfg.MaxRetries,
			RetryBaseDelay:    cfg.RetryBaseDelay,
			RetryMaxDelay:     cfg.RetryMaxDelay,
			Poll:              pollConfig(cfg),
			AIVideoMaxSeconds: cfg.AIVideoMaxSeconds,
			RunTimeout:        cfg.RunTimeout,
		},
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble pipeline")
	}

	app := handlers.NewApp(orchestrator, recorder, sink, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		ArtifactDir:    cfg.ArtifactDir,
		AllowedOrigins: []string{cfg.FrontendURL, "http://localhost:5173"},
		Logger:         logger,
		GenerateLimit:  cfg.GenerateRateLimit,
		GenerateWindow: cfg.GenerateRateWindow,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func pollConfig(cfg *infra.Config) poll.Config {
	return poll.Config{
		Interval:    cfg.PollInterval,
		MaxInterval: cfg.PollMaxInterval,
		Timeout:     cfg.PollTimeout,
	}
}

// initMetadataProviders registers the request-selectable metadata
// vendors. Every capability map carries an "auto" entry; pinned names
// resolve to the real adapter or to an Unconfigured stand-in whose
// failure the run records.
func initMetadataProviders(cfg *infra.Config, httpClient *http.Client, logger infra.Logger) (map[string]metadata.Generator, error) {
	onFallback := func(reason string, err error) {
		logger.Warn().Err(err).Str("reason", reason).Msg("metadata fell back to static branding")
	}
	auto, err := metadata.New(metadata.Options{
		Provider:     cfg.MetadataProvider,
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		HTTPClient:   httpClient,
		OnFallback:   onFallback,
	})
	if err != nil {
		return nil, err
	}
	providers := map[string]metadata.Generator{
		"auto":   auto,
		"static": metadata.NewStatic(),
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		providers["openai"] = &metadata.Unconfigured{}
		return providers, nil
	}
	openAI, err := metadata.NewOpenAI(metadata.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		HTTPClient:   httpClient,
	})
	if err != nil {
		return nil, err
	}
	providers["openai"] = openAI
	return providers, nil
}

func initImageProviders(cfg *infra.Config, httpClient *http.Client) (map[string]image.Generator, error) {
	auto, err := image.New(image.Options{
		Provider:     "auto",
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIImageModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		HTTPClient:   httpClient,
	})
	if err != nil {
		return nil, err
	}
	providers := map[string]image.Generator{"auto": auto}
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		providers["openai"] = &image.Unconfigured{}
		return providers, nil
	}
	openAI, err := image.NewOpenAI(image.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIImageModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		HTTPClient:   httpClient,
	})
	if err != nil {
		return nil, err
	}
	providers["openai"] = openAI
	return providers, nil
}

func initMusicProviders(cfg *infra.Config, httpClient *http.Client, logger infra.Logger) (map[string]music.Generator, error) {
	auto, err := music.New(music.Options{
		Provider:     "auto",
		APIToken:     cfg.ReplicateAPIToken,
		Model:        cfg.ReplicateModel,
		ModelVersion: cfg.ReplicateModelVersion,
		BaseURL:      cfg.ReplicateBaseURL,
		HTTPClient:   httpClient,
		Poll:         pollConfig(cfg),
		Logger:       &logger,
	})
	if err != nil {
		return nil, err
	}
	providers := map[string]music.Generator{
		"auto":  auto,
		"local": music.NewLocal(),
	}
	if strings.TrimSpace(cfg.ReplicateAPIToken) == "" {
		providers["replicate"] = &music.Unconfigured{}
		return providers, nil
	}
	replicate, err := music.NewReplicate(music.ReplicateOptions{
		APIToken:     cfg.ReplicateAPIToken,
		Model:        cfg.ReplicateModel,
		ModelVersion: cfg.ReplicateModelVersion,
		BaseURL:      cfg.ReplicateBaseURL,
		HTTPClient:   httpClient,
		Poll:         pollConfig(cfg),
		Logger:       &logger,
	})
	if err != nil {
		return nil, err
	}
	providers["replicate"] = replicate
	return providers, nil
}

func initAIVideoProviders(cfg *infra.Config, httpClient *http.Client, logger infra.Logger) (map[string]aivideo.Generator, error) {
	auto, err := aivideo.New(aivideo.Options{
		Provider:   "auto",
		APIKey:     cfg.RunwayAPIKey,
		Model:      cfg.RunwayModel,
		BaseURL:    cfg.RunwayBaseURL,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		return nil, err
	}
	providers := map[string]aivideo.Generator{"auto": auto}
	if strings.TrimSpace(cfg.RunwayAPIKey) == "" {
		providers["runway"] = &aivideo.Unconfigured{}
		return providers, nil
	}
	runway, err := aivideo.NewRunway(aivideo.RunwayOptions{
		APIKey:     cfg.RunwayAPIKey,
		Model:      cfg.RunwayModel,
		BaseURL:    cfg.RunwayBaseURL,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		return nil, err
	}
	providers["runway"] = runway
	return providers, nil
}
