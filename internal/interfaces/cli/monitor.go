package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigiajus/vigiajus/pkg/client"
)

type scheduleList []*client.ScheduleEntry

func (s scheduleList) tableHeaders() []string {
	return []string{"ID", "Processo", "Tribunal", "Frequência", "Prioridade", "Estado", "Próxima execução"}
}

func (s scheduleList) tableRows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, e := range s {
		next := "-"
		if e.NextExecution != nil {
			next = e.NextExecution.Format("02/01/2006 15:04")
		}
		rows = append(rows, []string{
			truncate(e.ID, 12),
			e.CNJNumber,
			e.TribunalCode,
			fmt.Sprintf("%.1fh", e.FrequencyHours),
			colorizePriority(e.Priority),
			e.State,
			next,
		})
	}
	return rows
}

// newMonitorCmd groups the schedule management commands.
func newMonitorCmd() *cobra.Command {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Gerencia o monitoramento agendado de processos",
	}

	var frequencyHours float64
	var priority string

	startCmd := &cobra.Command{
		Use:   "start <numero-processo>",
		Short: "Inicia o monitoramento agendado de um processo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			entry, err := cliCtx.Client.StartMonitoring(cmd.Context(), args[0], frequencyHours, priority)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printResult(cmd, cliCtx, entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Monitoramento iniciado: %s (a cada %.1fh, prioridade %s)\n",
				entry.CNJNumber, entry.FrequencyHours, entry.Priority)
			return nil
		},
	}
	startCmd.Flags().Float64VarP(&frequencyHours, "frequency", "f", 0, "polling frequency in hours (0 uses the priority default)")
	startCmd.Flags().StringVarP(&priority, "priority", "p", "", "priority (urgent, high, medium, low)")

	stopCmd := &cobra.Command{
		Use:   "stop <numero-processo>",
		Short: "Encerra o monitoramento de um processo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := cliCtx.Client.StopMonitoring(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Monitoramento encerrado.")
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista os agendamentos ativos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			schedules, err := cliCtx.Client.ListSchedules(cmd.Context())
			if err != nil {
				return err
			}
			if len(schedules) == 0 && cliCtx.OutputFormat != "json" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhum agendamento cadastrado.")
				return nil
			}
			return printResult(cmd, cliCtx, scheduleList(schedules))
		},
	}

	pauseCmd := &cobra.Command{
		Use:   "pause <id-agendamento>",
		Short: "Suspende um agendamento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := cliCtx.Client.PauseSchedule(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Agendamento suspenso.")
			return nil
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume <id-agendamento>",
		Short: "Reativa um agendamento suspenso",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := cliCtx.Client.ResumeSchedule(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Agendamento reativado.")
			return nil
		},
	}

	monitorCmd.AddCommand(startCmd, stopCmd, listCmd, pauseCmd, resumeCmd)
	return monitorCmd
}
