package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigiajus/vigiajus/pkg/client"
)

type noveltyList []*client.Novelty

func (n noveltyList) tableHeaders() []string {
	return []string{"ID", "Prioridade", "Processo", "Data", "Título"}
}

func (n noveltyList) tableRows() [][]string {
	rows := make([][]string, 0, len(n))
	for _, nov := range n {
		rows = append(rows, []string{
			truncate(nov.ID, 12),
			colorizePriority(nov.Priority),
			nov.CNJNumber,
			nov.Date.Format("02/01/2006"),
			truncate(nov.Title, 60),
		})
	}
	return rows
}

// newNoveltiesCmd groups the novelty inbox commands.
func newNoveltiesCmd() *cobra.Command {
	noveltiesCmd := &cobra.Command{
		Use:   "novelties",
		Short: "Lista e marca como lidas as novidades detectadas",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista as novidades não lidas, mais urgentes primeiro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			novelties, err := cliCtx.Client.ListUnreadNovelties(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(novelties) == 0 && cliCtx.OutputFormat != "json" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma novidade pendente.")
				return nil
			}
			return printResult(cmd, cliCtx, noveltyList(novelties))
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of novelties")

	readCmd := &cobra.Command{
		Use:   "read <id-novidade> [id-novidade...]",
		Short: "Marca novidades específicas como lidas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			marked, err := cliCtx.Client.MarkNoveltiesRead(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d novidade(s) marcada(s) como lida(s).\n", marked)
			return nil
		},
	}

	readProcessCmd := &cobra.Command{
		Use:   "read-process <id-processo>",
		Short: "Marca todas as novidades de um processo como lidas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			marked, err := cliCtx.Client.MarkProcessNoveltiesRead(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d novidade(s) marcada(s) como lida(s).\n", marked)
			return nil
		},
	}

	noveltiesCmd.AddCommand(listCmd, readCmd, readProcessCmd)
	return noveltiesCmd
}
