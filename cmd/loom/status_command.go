package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/api"
	"loom/internal/ipc"
	"loom/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusWarn
				runningMsg := "stopped"
				if status.Running {
					runningKind = statusOK
					runningMsg = fmt.Sprintf("pid %d", status.PID)
				}
				fmt.Fprintln(stdout, renderStatusLine("Processing", runningKind, runningMsg, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.Pipeline.DatabasePath, colorize))
				if status.Pipeline.LastError != "" {
					fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, status.Pipeline.LastError, colorize))
				}

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Stages", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, health := range status.Pipeline.StageHealth {
					kind := statusOK
					msg := "ready"
					if !health.Ready {
						kind = statusError
						msg = health.Detail
					}
					fmt.Fprintln(stdout, renderStatusLine(health.Name, kind, msg, colorize))
				}
				if len(status.Pipeline.BusyResources) > 0 {
					fmt.Fprintln(stdout, renderStatusLine("Busy resources", statusWarn,
						strings.Join(status.Pipeline.BusyResources, ", "), colorize))
				}

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Queues", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderQueueTable(status.Pipeline.Queues))

				if len(status.Pipeline.ProjectStats) > 0 {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Projects", colorize) {
						fmt.Fprintln(stdout, line)
					}
					fmt.Fprintln(stdout, renderProjectStats(status.Pipeline.ProjectStats))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of the status view")
	return cmd
}

func renderQueueTable(queues []api.StageQueueView) string {
	rows := make([][]string, 0, len(queues))
	for _, q := range queues {
		rows = append(rows, []string{
			q.Stage,
			q.RunState,
			strconv.Itoa(q.Jobs[string(queue.JobWaiting)]),
			strconv.Itoa(q.Jobs[string(queue.JobProcessing)]),
			strconv.Itoa(q.Jobs[string(queue.JobError)]),
		})
	}
	return renderTable(
		[]string{"Stage", "State", "Waiting", "Processing", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}

func renderProjectStats(stats map[string]int) string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllProjectStatuses() {
		count := stats[string(status)]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return renderTable(
		[]string{"Status", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}
