package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	gommon "github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"worldweaver/pkg/config"
	"worldweaver/pkg/inference"
	"worldweaver/pkg/planner"
	"worldweaver/pkg/prompt"
	"worldweaver/pkg/recorder"
	"worldweaver/pkg/server"
	"worldweaver/pkg/stage"
	"worldweaver/pkg/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		stub       bool
	)

	root := &cobra.Command{
		Use:   "worldweaver",
		Short: "Staged worldbuilding assistant backend",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if stub {
				cfg.Stub = true
			}
			return serve(cfg)
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "worldweaver.yaml", "config file path")
	serveCmd.Flags().BoolVar(&stub, "stub", false, "serve canned model replies instead of calling a provider")
	root.AddCommand(serveCmd)

	root.AddCommand(&cobra.Command{
		Use:   "stages",
		Short: "List the worldbuilding stage table",
		Run: func(cmd *cobra.Command, _ []string) {
			for i := 0; i < stage.Count(); i++ {
				ref, _ := stage.Resolve(i)
				fmt.Fprintf(cmd.OutOrStdout(), "%2d  %-35s %s\n", i, stage.Title(i), ref)
			}
		},
	})

	return root
}

func serve(cfg config.Config) error {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	inf, err := buildInferencer(cfg)
	if err != nil {
		return err
	}
	log.Info("model provider selected", "provider", inf.Name())

	users, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer users.Close()
	if err := users.EnsureUser(ctx, "Test User", "t@t.t", "pwd"); err != nil {
		log.Warn("failed seeding default user", "error", err)
	}

	p := planner.New(prompt.NewStore(cfg.PromptDir), inf)
	rec := recorder.New(cfg.LogDir)

	srv := server.NewServer(ctx, p, rec, users)
	srv.ProgressFile = cfg.ProgressFile
	srv.LoadProgress()
	srv.Echo.Logger.SetLevel(gommon.DEBUG)

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("shutdown failed", "error", err)
		}
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-finishedShutDown
	return nil
}

// buildInferencer picks the model backend from config and environment. With
// no OpenAI key the client points at a local inference server.
func buildInferencer(cfg config.Config) (inference.Inferencer, error) {
	if cfg.Stub {
		return inference.NewStubInferencer(), nil
	}

	switch cfg.Provider {
	case "openai", "":
		apiKey := os.Getenv("OPENAI_API_KEY")
		openAI := inference.NewOpenAIInferencer(apiKey, cfg.Model)
		if apiKey == "" {
			log.Warn("OPENAI_API_KEY not set, using local inference server")
			openAI.ChangeBaseURL("http://localhost:1234/v1")
			openAI.SetModel("")
		}
		return openAI, nil
	case "gemini":
		return inference.NewGeminiInferencer(os.Getenv("GEMINI_API_KEY"), cfg.Model)
	case "grok":
		key := os.Getenv("GROK_API_KEY")
		if key == "" {
			return nil, errors.New("GROK_API_KEY is required for the grok provider")
		}
		return inference.NewGrokInferencer(key, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
