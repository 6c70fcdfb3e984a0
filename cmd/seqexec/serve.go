package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/kode4food/seqexec"
	"github.com/kode4food/seqexec/internal/config"
	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/internal/loader"
	"github.com/kode4food/seqexec/internal/performer"
	"github.com/kode4food/seqexec/internal/server"
	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/log"
)

type (
	seqexec struct {
		cfg        *config.Config
		broker     performer.Broker
		performer  engine.Performer
		engine     *engine.Engine
		apiServer  *server.Server
		httpServer *http.Server
		quit       chan os.Signal
	}

	serveOptions struct {
		sequenceDir string
		performer   string
	}
)

var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrCreatePerformer = errors.New("failed to create performer")
	ErrLoadSequences   = errors.New("failed to load sequences")
)

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the executor and its HTTP API",
		Long: `Starts the engine and the HTTP API. Configuration is read
from the environment; flags override it.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			s := &seqexec{
				cfg:  cfg,
				quit: make(chan os.Signal, 1),
			}
			s.setupLogging()
			return s.run()
		},
	}

	cmd.Flags().StringVar(&opts.sequenceDir, "sequences", "",
		"directory of YAML sequences to load at startup")
	cmd.Flags().StringVar(&opts.performer, "performer", "",
		"action performer (simulator|mqtt)")
	return cmd
}

func (o *serveOptions) config() (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if o.sequenceDir != "" {
		cfg.SequenceDir = o.sequenceDir
	}
	if o.performer != "" {
		cfg.Performer = o.performer
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (s *seqexec) run() error {
	if err := s.initializePerformer(); err != nil {
		return err
	}

	s.engine = engine.New(s.cfg, s.performer)
	s.engine.Start()

	if err := s.loadSequences(); err != nil {
		s.stopEngine()
		s.closeBroker()
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *seqexec) setupLogging() {
	level := log.ParseLevel(s.cfg.LogLevel)
	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Sequence executor starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("performer", s.cfg.Performer),
		slog.String("sequence_dir", s.cfg.SequenceDir),
		slog.Duration("action_timeout", s.cfg.ActionTimeout),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *seqexec) initializePerformer() error {
	switch s.cfg.Performer {
	case config.PerformerMQTT:
		b, err := performer.Connect(s.cfg.MQTT)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCreatePerformer, err)
		}
		m, err := performer.NewMQTT(b, s.cfg.MQTT.TopicPrefix)
		if err != nil {
			_ = b.Close()
			return fmt.Errorf("%w: %w", ErrCreatePerformer, err)
		}
		slog.Info("MQTT performer connected",
			slog.String("broker", s.cfg.MQTT.Broker))
		s.broker = b
		s.performer = m
	default:
		s.performer = performer.NewSimulator()
	}
	return nil
}

func (s *seqexec) loadSequences() error {
	if s.cfg.SequenceDir == "" {
		return nil
	}
	seqs, err := loader.LoadDir(s.cfg.SequenceDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadSequences, err)
	}
	for _, seq := range seqs {
		ev := api.LoadSequenceEvent{Sequence: seq}
		if _, err := s.engine.Submit(ev); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoadSequences, seq.ID, err)
		}
		slog.Info("Sequence loaded",
			log.SequenceID(seq.ID),
			log.Resource(seq.Metadata.Instrument),
			slog.Int("steps", len(seq.Steps)))
	}
	return nil
}

func (s *seqexec) startServer() {
	s.apiServer = server.NewServer(s.engine)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
			select {
			case s.quit <- syscall.SIGTERM:
			default:
			}
		}
	}()
}

func (s *seqexec) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.stopEngine()
	s.closeBroker()

	slog.Info("Server exited")
}

func (s *seqexec) stopEngine() {
	if err := s.engine.Stop(); err != nil {
		slog.Error("Engine shutdown failed", log.Error(err))
	}
}

func (s *seqexec) closeBroker() {
	if s.broker != nil {
		_ = s.broker.Close()
	}
}
