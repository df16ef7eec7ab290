// Package cli implements the vigiactl command tree.  Every command talks
// to a running server through the pkg/client SDK, so the CLI carries no
// domain logic of its own.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vigiajus/vigiajus/pkg/client"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ServerAddr   string
	OutputFormat string
	Timeout      time.Duration
	NoColor      bool
}

// CLIContext carries the initialized SDK client through the command tree.
type CLIContext struct {
	Client       *client.Client
	OutputFormat string
	NoColor      bool
}

type cliContextKey struct{}

// NewRootCommand creates the vigiactl root command with global flags and
// all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "vigiactl",
		Short:   "VigiaJus CLI para monitoramento de movimentações processuais",
		Long:    "vigiactl controla um servidor VigiaJus: valida e consulta números CNJ,\ngerencia o monitoramento agendado de processos e lista as novidades\ndetectadas nas movimentações.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ServerAddr, "server", "s", "", "API server address (default: $VIGIAJUS_SERVER or http://localhost:8080)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newValidateCmd(),
		newQueryCmd(),
		newMonitorCmd(),
		newNoveltiesCmd(),
		newTribunalsCmd(),
		newStatsCmd(),
		newCleanupCmd(),
		newHealthCmd(),
	)

	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	addr := opts.ServerAddr
	if addr == "" {
		addr = os.Getenv("VIGIAJUS_SERVER")
	}
	if addr == "" {
		addr = "http://localhost:8080"
	}

	if opts.NoColor {
		color.NoColor = true
	}

	cliCtx := &CLIContext{
		Client:       client.New(addr, client.WithTimeout(opts.Timeout)),
		OutputFormat: strings.ToLower(opts.OutputFormat),
		NoColor:      opts.NoColor,
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	cmd.SetContext(ctx)
	return nil
}

// getCLIContext extracts the CLIContext stored by persistentPreRun.
func getCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("CLI context not initialized")
	}
	return cliCtx, nil
}

// Execute runs the root command; the caller maps a non-nil error to a
// non-zero exit code.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Erro: %s\n", err.Error())
		return err
	}
	return nil
}

// printResult renders data according to the selected output format.
func printResult(cmd *cobra.Command, cliCtx *CLIContext, data interface{}) error {
	if cliCtx.OutputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	type tableProvider interface {
		tableHeaders() []string
		tableRows() [][]string
	}
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), formatTable(tp.tableHeaders(), tp.tableRows()))
		return nil
	}

	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// formatTable renders headers and rows as an aligned ASCII table.
func formatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, widths[i]))
	}
	sb.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// colorizePriority highlights novelty priorities in table output.
func colorizePriority(priority string) string {
	switch strings.ToLower(priority) {
	case "urgent":
		return color.RedString(priority)
	case "high":
		return color.YellowString(priority)
	case "medium":
		return color.CyanString(priority)
	default:
		return priority
	}
}
