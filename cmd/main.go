package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"voice-session-orchestrator/internal/app"
	"voice-session-orchestrator/internal/config"
	"voice-session-orchestrator/internal/events"
	httpapi "voice-session-orchestrator/internal/http"
	"voice-session-orchestrator/internal/observability"
	"voice-session-orchestrator/internal/service/arbiter"
	"voice-session-orchestrator/internal/service/guided"
	"voice-session-orchestrator/internal/service/mode"
	"voice-session-orchestrator/internal/service/nlp"
	"voice-session-orchestrator/internal/service/session"
	"voice-session-orchestrator/internal/service/speech"
	"voice-session-orchestrator/internal/service/speech/google"
	"voice-session-orchestrator/internal/service/speech/mock"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka mirror for the result bus. Disabled configs degrade to log-only.
	publisher := events.NewPublisher(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	bus := events.NewBus(publisher)

	obsServer := observability.NewServer(cfg.Observability.MetricsAddr)
	obsServer.Start()

	capture, output, err := buildEngines(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Speech.Provider).Msg("Failed to build speech engines")
	}

	sessionID := newSessionID()
	gateway := speech.NewGateway(sessionID, capture, output, speech.SpeakOptions{
		LanguageCode: cfg.Speech.LanguageCode,
		Voice:        cfg.Speech.Voice,
		Rate:         cfg.Speech.SpeakingRate,
		Pitch:        cfg.Speech.Pitch,
	}, cfg.Speech.ResumeDelay)

	productClient := nlp.NewProductClient(cfg.NLP.ProductBaseURL, cfg.NLP.Timeout)
	orderClient := nlp.NewOrderClient(cfg.NLP.OrderBaseURL, cfg.NLP.Timeout)
	lookupClient := nlp.NewLookupClient(cfg.NLP.LookupBaseURL, cfg.NLP.Timeout)
	submitClient := nlp.NewSubmitClient(cfg.NLP.SubmitBaseURL, cfg.NLP.Timeout)

	loop := session.NewLoop()
	modes := mode.New()
	nav := arbiter.NewMemoryNavigator()

	// The flow reports each captured field; the submit sentinel triggers the
	// backend create call off the loop, with the outcome posted back.
	var flow *guided.Engine
	flow = guided.NewEngine(gateway, lookupClient, loop.Post, func(field guided.FieldID, _ string) {
		if field != guided.SubmitField {
			return
		}
		fields := make(map[string]string)
		for k, v := range flow.Collected() {
			fields[string(k)] = v
		}
		go func() {
			res, err := submitClient.Create(ctx, fields)
			loop.Post(func() {
				if err != nil {
					log.Error().Err(err).Msg("Opportunity submission failed")
					gateway.Speak("I could not submit the opportunity. Please try again or say stop opportunity.")
					return
				}
				if !res.Success {
					gateway.Speak("The opportunity was not accepted. " + res.Message)
					return
				}
				flow.Finish("The opportunity has been created.")
			})
		}()
	})

	arb := arbiter.New(modes, flow, gateway, productClient, orderClient, bus, nav, loop.Post)

	sess := session.New(sessionID, loop, gateway, arb, modes, flow, nav)
	if err := sess.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start session")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(sess, bus),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	// gRPC health endpoint for platform probes.
	lis, err := net.Listen("tcp", ":"+cfg.Service.HealthPort)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen on health port")
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server started")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("gRPC serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	grpcServer.GracefulStop()

	if err := sess.Close(); err != nil {
		log.Error().Err(err).Msg("Session close failed")
	}
	cancel()

	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability shutdown failed")
	}
	application.Shutdown()
}

// buildEngines selects the capture and output engines for the configured
// provider. The mock provider needs no credentials and is the default.
func buildEngines(ctx context.Context, cfg *config.Configuration) (speech.CaptureEngine, speech.OutputEngine, error) {
	switch cfg.Speech.Provider {
	case "google":
		capture, err := google.NewCapture(ctx, cfg.Speech.LanguageCode)
		if err != nil {
			return nil, nil, err
		}
		output, err := google.NewOutput(ctx, audioSink())
		if err != nil {
			return nil, nil, err
		}
		return capture, output, nil
	default:
		return mock.NewCapture(), mock.NewOutput(), nil
	}
}

// audioSink is where synthesized audio goes. Stdout lets operators pipe the
// LINEAR16 stream into a player; everything else in the process logs to stderr.
func audioSink() io.Writer {
	return os.Stdout
}

func newSessionID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "session-local"
	}
	return "session-" + hex.EncodeToString(b)
}
