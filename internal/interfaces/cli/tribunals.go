package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigiajus/vigiajus/pkg/client"
)

type tribunalList []*client.TribunalConfig

func (t tribunalList) tableHeaders() []string {
	return []string{"Código", "Nome", "Segmento", "Ativo"}
}

func (t tribunalList) tableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, trb := range t {
		active := "não"
		if trb.IsActive {
			active = "sim"
		}
		rows = append(rows, []string{
			trb.Code,
			truncate(trb.Name, 50),
			fmt.Sprintf("%d", trb.Segment),
			active,
		})
	}
	return rows
}

// newTribunalsCmd groups the tribunal registry commands.
func newTribunalsCmd() *cobra.Command {
	tribunalsCmd := &cobra.Command{
		Use:   "tribunals",
		Short: "Consulta e ajusta o cadastro de tribunais",
	}

	var segment int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista os tribunais cadastrados",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			tribunals, err := cliCtx.Client.ListTribunals(cmd.Context(), segment)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, tribunalList(tribunals))
		},
	}
	listCmd.Flags().IntVar(&segment, "segment", 0, "filter by judiciary segment (1-9, 0 lists all)")

	var name, endpoint string
	var activate, deactivate bool
	updateCmd := &cobra.Command{
		Use:   "update <codigo>",
		Short: "Atualiza nome, endpoint ou situação de um tribunal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if activate && deactivate {
				return fmt.Errorf("--activate e --deactivate são mutuamente exclusivos")
			}

			var patch client.TribunalPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("endpoint") {
				patch.Endpoint = &endpoint
			}
			if activate {
				v := true
				patch.IsActive = &v
			}
			if deactivate {
				v := false
				patch.IsActive = &v
			}
			if patch.Name == nil && patch.Endpoint == nil && patch.IsActive == nil {
				return fmt.Errorf("nenhuma alteração informada")
			}

			cfg, err := cliCtx.Client.UpdateTribunal(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printResult(cmd, cliCtx, cfg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tribunal %s atualizado.\n", cfg.Code)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&name, "name", "", "new display name")
	updateCmd.Flags().StringVar(&endpoint, "endpoint", "", "new query endpoint")
	updateCmd.Flags().BoolVar(&activate, "activate", false, "mark the tribunal as active")
	updateCmd.Flags().BoolVar(&deactivate, "deactivate", false, "mark the tribunal as inactive")

	usageCmd := &cobra.Command{
		Use:   "usage <codigo>",
		Short: "Mostra o consumo das janelas de limite de um tribunal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			usage, err := cliCtx.Client.GetRateLimitUsage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printResult(cmd, cliCtx, usage)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Consumo do tribunal %s:\n", args[0])
			fmt.Fprintf(out, "  Último minuto: %d\n", usage.LastMinute)
			fmt.Fprintf(out, "  Última hora:   %d\n", usage.LastHour)
			fmt.Fprintf(out, "  Último dia:    %d\n", usage.LastDay)
			if usage.BlockedUntil != nil {
				fmt.Fprintf(out, "  Bloqueado até: %s\n", usage.BlockedUntil.Format("02/01/2006 15:04:05"))
			}
			return nil
		},
	}

	tribunalsCmd.AddCommand(listCmd, updateCmd, usageCmd)
	return tribunalsCmd
}
