package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nbenliogludev/quiz-chain-solver/internal/server"
	"github.com/nbenliogludev/quiz-chain-solver/internal/store"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the quiz HTTP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runs, err := openRunStore(ctx, a)
			if err != nil {
				return err
			}
			if c, ok := runs.(io.Closer); ok {
				defer c.Close()
			}

			srv := server.New(a.runner, runs, server.Options{
				Secret:       a.cfg.QuizSecret,
				OwnerEmail:   a.cfg.QuizEmail,
				SolveTimeout: a.cfg.SolveTimeout(),
			}, a.logger)

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(addr) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default LISTEN_ADDR or :8000)")
	return cmd
}

func openRunStore(ctx context.Context, a *app) (store.RunStore, error) {
	if a.cfg.RedisAddr == "" {
		return store.NewMemoryStore(a.cfg.RunTTL()), nil
	}
	rs, err := store.NewRedisStore(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.RunTTL())
	if err != nil {
		return nil, err
	}
	a.logger.Info("archiving runs in redis", "addr", a.cfg.RedisAddr)
	return rs, nil
}
