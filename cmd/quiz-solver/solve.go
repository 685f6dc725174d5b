package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func solveCMD(cfgPath *string) *cobra.Command {
	var url, email, secret string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one quiz chain and print its trace as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if email == "" {
				email = a.cfg.QuizEmail
			}
			if secret == "" {
				secret = a.cfg.QuizSecret
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := contextWithOptionalTimeout(ctx, a.cfg.SolveTimeout())
			defer cancel()

			out := a.runner.Execute(ctx, email, secret, url, a.cfg.QuizEmail)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out.Trace); err != nil {
				return fmt.Errorf("encode trace: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "first quiz URL")
	cmd.Flags().StringVar(&email, "email", "", "submitter email (default QUIZ_EMAIL)")
	cmd.Flags().StringVar(&secret, "secret", "", "quiz secret (default QUIZ_SECRET)")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
