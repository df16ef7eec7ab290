package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newStatsCmd fetches the server's statistics document.
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Mostra as estatísticas do servidor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			stats, err := cliCtx.Client.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			// The stats document is free-form; JSON is the only sensible
			// rendering.
			cliCtx.OutputFormat = "json"
			return printResult(cmd, cliCtx, stats)
		},
	}
}

// newCleanupCmd triggers one cleanup pass on the server.
func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Executa uma passada de limpeza (novidades expiradas, cache, logs)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			result, err := cliCtx.Client.RunCleanup(cmd.Context())
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printResult(cmd, cliCtx, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Limpeza concluída em %s:\n", result.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "  Novidades expiradas: %d\n", result.NoveltiesExpired)
			fmt.Fprintf(out, "  Entradas de cache:   %d\n", result.CacheEvicted)
			fmt.Fprintf(out, "  Logs removidos:      %d\n", result.LogsPurged)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  Aviso: %s\n", e)
			}
			return nil
		},
	}
}

// newHealthCmd pings the server.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Verifica se o servidor está respondendo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := cliCtx.Client.Health(cmd.Context()); err != nil {
				return fmt.Errorf("servidor indisponível: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Servidor saudável.")
			return nil
		},
	}
}
