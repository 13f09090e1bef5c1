// Copyright 2025 Prompt Enhancer Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main provides the prompt enhancement HTTP service: clarifying
// question generation, two-stage enhancement, and conversation history.
package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/your-org/prompt-enhancer/internal/config"
	"github.com/your-org/prompt-enhancer/internal/enhance"
	"github.com/your-org/prompt-enhancer/internal/health"
	"github.com/your-org/prompt-enhancer/internal/pipeline"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"github.com/your-org/prompt-enhancer/internal/questions"
	"github.com/your-org/prompt-enhancer/internal/session"
	"github.com/your-org/prompt-enhancer/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceVersion = "1.0.0"

func main() {
	var configPath string
	var port int

	rootCmd := &cobra.Command{
		Use:          "prompt-enhancer",
		Short:        "Multi-turn prompt enhancement service",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath, port)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.Flags().IntVar(&port, "port", 0, "Override the configured listen port")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	masked := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded successfully",
		zap.String("service", "prompt-enhancer"),
		zap.Int("port", cfg.Server.Port),
		zap.String("db_path", cfg.Storage.DBPath),
		zap.String("openai_api_key", masked.Providers.OpenAI.APIKey),
		zap.String("groq_api_key", masked.Providers.Groq.APIKey),
		zap.String("gemini_api_key", masked.Providers.Gemini.APIKey),
		zap.String("huggingface_api_key", masked.Providers.HuggingFace.APIKey),
	)

	db, err := store.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	registry := provider.NewRegistry(provider.Credentials{
		OpenAIKey:           cfg.Providers.OpenAI.APIKey,
		OpenAIModel:         cfg.Providers.OpenAI.Model,
		GroqKey:             cfg.Providers.Groq.APIKey,
		GroqModel:           cfg.Providers.Groq.Model,
		GeminiKey:           cfg.Providers.Gemini.APIKey,
		GeminiModel:         cfg.Providers.Gemini.Model,
		HuggingFaceKey:      cfg.Providers.HuggingFace.APIKey,
		HuggingFaceModel:    cfg.Providers.HuggingFace.Model,
		HuggingFaceEndpoint: cfg.Providers.HuggingFace.Endpoint,
	}, logger)

	sessions := session.NewManager(session.Config{
		DefaultTTL:      cfg.Session.TTL,
		MaxSessions:     cfg.Session.MaxSessions,
		CleanupInterval: cfg.Session.CleanupInterval,
	}, logger)
	defer func() { _ = sessions.Close() }()

	generator := questions.NewGenerator(registry, logger)
	synthesizer := enhance.NewSynthesizer(registry, logger)
	orchestrator := pipeline.NewOrchestrator(generator, synthesizer, logger)

	healthManager := health.NewManager("prompt-enhancer", serviceVersion, logger)
	healthManager.AddChecker("database", health.DatabaseChecker("sqlite", db.Ping))
	healthManager.AddChecker("providers", health.ProviderChecker(registry.Configured))

	srv := &server{
		config:       cfg,
		logger:       logger,
		registry:     registry,
		sessions:     sessions,
		orchestrator: orchestrator,
		store:        db,
		health:       healthManager,
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	srv.registerRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting prompt enhancement service",
		zap.String("addr", addr),
		zap.Strings("providers", registry.Configured()),
	)

	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// initializeLogger creates a logger based on configuration settings
func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	if cfg.Logging.Output == "file" {
		zapConfig.OutputPaths = []string{"prompt-enhancer.log"}
		zapConfig.ErrorOutputPaths = []string{"prompt-enhancer.log"}
	} else {
		zapConfig.OutputPaths = []string{"stdout"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	return zapConfig.Build()
}
