package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigiajus/vigiajus/pkg/client"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// newValidateCmd checks a CNJ number without touching the tribunal.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <numero-processo>",
		Short: "Valida um número CNJ (formato, dígito verificador e tribunal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			result, err := cliCtx.Client.ValidateNumber(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printResult(cmd, cliCtx, result)
			}

			if !result.Valid {
				return fmt.Errorf("número inválido [%s]: %s", result.Code, result.Reason)
			}

			out := cmd.OutOrStdout()
			n := result.Number
			fmt.Fprintf(out, "Número válido: %s-%s.%04d.%d.%s.%s\n",
				n.Sequential, n.CheckDigits, n.Year, n.Segment, n.TribunalID, n.OriginUnit)
			fmt.Fprintf(out, "  Segmento: %s\n", n.SegmentName)
			fmt.Fprintf(out, "  Tribunal: %s (%s)\n", n.TribunalName, n.TribunalCode)
			if n.Region != "" {
				fmt.Fprintf(out, "  Região:   %s\n", n.Region)
			}
			return nil
		},
	}
}

type queryOutput struct {
	*ptypes.MovementQueryResult
}

func (q queryOutput) tableHeaders() []string {
	return []string{"Data", "Judicial", "Movimentação"}
}

func (q queryOutput) tableRows() [][]string {
	rows := make([][]string, 0, len(q.Movements))
	for _, m := range q.Movements {
		judicial := ""
		if m.IsJudicial {
			judicial = "sim"
		}
		rows = append(rows, []string{
			m.Date.Format("02/01/2006"),
			judicial,
			truncate(m.Title, 80),
		})
	}
	return rows
}

// newQueryCmd runs one on-demand movement query.
func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <numero-processo>",
		Short: "Consulta as movimentações de um processo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			result, err := cliCtx.Client.QueryMovements(cmd.Context(), args[0])
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
					return fmt.Errorf("tribunal com limite de consultas atingido, tente novamente mais tarde")
				}
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printResult(cmd, cliCtx, result)
			}

			out := cmd.OutOrStdout()
			if !result.Success {
				return fmt.Errorf("consulta falhou [%s]: %s", result.ErrorCode, result.ErrorMessage)
			}

			source := "tribunal"
			if result.FromCache {
				source = "cache"
			}
			fmt.Fprintf(out, "Processo %s (%s)\n", result.ProcessNumber, result.TribunalName)
			fmt.Fprintf(out, "%d movimentações (%d novas, fonte: %s, %s)\n\n",
				result.TotalMovements, result.NewMovements, source, result.Duration.Round(time.Millisecond))

			if len(result.Movements) > 0 {
				fmt.Fprint(out, formatTable(queryOutput{result}.tableHeaders(), queryOutput{result}.tableRows()))
			}
			if len(result.Novelties) > 0 {
				fmt.Fprintf(out, "\nNovidades detectadas:\n")
				for _, n := range result.Novelties {
					fmt.Fprintf(out, "  [%s] %s\n", colorizePriority(n.Priority), n.Title)
				}
			}
			return nil
		},
	}
}
