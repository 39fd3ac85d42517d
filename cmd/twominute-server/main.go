package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/twominute/twominute/internal"
	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/config"
	"github.com/twominute/twominute/internal/event"
	"github.com/twominute/twominute/internal/eventbus"
	"github.com/twominute/twominute/internal/guardrail"
	"github.com/twominute/twominute/internal/model"
	"github.com/twominute/twominute/internal/plan"
	"github.com/twominute/twominute/internal/progress"
	"github.com/twominute/twominute/internal/task"
	"github.com/twominute/twominute/internal/user"
	"github.com/twominute/twominute/pkg/clog"
	"github.com/twominute/twominute/pkg/panicerr"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	repos, closeRepos, err := openRepositories(ctx, config.StorageEnvFromEnv(env))
	if err != nil {
		slog.Error("failed to set up storage", "type", env.StorageEnv.Type, "error", err)
		os.Exit(1)
	}
	defer closeRepos()

	filter := guardrail.NewFilter(guardrail.DefaultRules())
	var watcher *guardrail.Watcher
	if path := env.GuardrailEnv.RulesFile; path != "" {
		watcher, err = guardrail.NewWatcher(path, filter)
		if err != nil {
			slog.Error("failed to load guardrail rules", "path", path, "error", err)
			os.Exit(1)
		}
	}

	var remote plan.RemoteGenerator
	geminiEnv := config.GeminiEnvFromEnv(env)
	if geminiEnv.RemoteEnabled() {
		svc, err := model.NewGeminiService(ctx, geminiEnv.APIKey)
		if err != nil {
			slog.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		remote = model.NewGenerator(svc, geminiEnv.Candidates(), model.WithCallTimeout(geminiEnv.CallTimeout))
		slog.Info("remote plan generation enabled", "models", geminiEnv.Candidates())
	} else {
		slog.Info("no gemini api key, plans come from the rule table")
	}

	bus := eventbus.New()
	authEnv := config.AuthEnvFromEnv(env)
	issuer := auth.NewIssuer(authEnv.Secret, authEnv.TokenTTL)

	srv := server.NewServer(
		env,
		issuer,
		user.NewServer(repos.users, issuer),
		plan.NewServer(plan.NewService(filter, remote), bus),
		task.NewServer(repos.tasks, bus),
		progress.NewServer(repos.tasks),
		event.NewServer(bus),
		repos.ping,
	)

	wg := conc.NewWaitGroup()
	panicerr.Go(ctx, wg, cancel, "http", func(ctx context.Context) error {
		if err := srv.ListenAndServe(ctx); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if watcher != nil {
		panicerr.Go(ctx, wg, cancel, "guardrail-watcher", watcher.Run)
	}

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}
