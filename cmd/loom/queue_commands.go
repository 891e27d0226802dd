package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/api"
	"loom/internal/ipc"
	"loom/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and control the stage queues",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueControlCommand(ctx, "start", "Resume dispatch for a stage queue",
		func(client *ipc.Client, stage string) error {
			_, err := client.QueueStart(stage)
			return err
		}))
	queueCmd.AddCommand(newQueueControlCommand(ctx, "pause", "Pause dispatch for a stage queue",
		func(client *ipc.Client, stage string) error {
			_, err := client.QueuePause(stage)
			return err
		}))
	queueCmd.AddCommand(newQueueControlCommand(ctx, "stop", "Stop dispatch for a stage queue",
		func(client *ipc.Client, stage string) error {
			_, err := client.QueueStop(stage)
			return err
		}))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var stage string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var jobs []api.JobView
				if client != nil {
					resp, err := client.JobList(stage)
					if err != nil {
						return err
					}
					jobs = resp.Jobs
				} else {
					var st queue.Stage
					if stage != "" {
						parsed, ok := queue.ParseStage(stage)
						if !ok {
							return fmt.Errorf("unknown stage %q", stage)
						}
						st = parsed
					}
					records, err := store.ListJobs(cmd.Context(), st)
					if err != nil {
						return err
					}
					jobs = api.FromJobs(records)
					projects, err := store.ListProjects(cmd.Context())
					if err != nil {
						return err
					}
					titles := make(map[int64]string, len(projects))
					for _, project := range projects {
						titles[project.ID] = project.Title
					}
					for i := range jobs {
						jobs[i].ProjectTitle = titles[jobs[i].ProjectID]
					}
				}
				if asJSON {
					return writeJSON(cmd, ipc.JobListResponse{Jobs: jobs})
				}
				if len(jobs) == 0 {
					fmt.Fprintln(stdout, "No queued jobs")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						fmt.Sprintf("%d", job.ID),
						job.Stage,
						fmt.Sprintf("%d", job.ProjectID),
						job.ProjectTitle,
						job.Status,
						job.ErrorMessage,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Job", "Stage", "Project", "Title", "Status", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Restrict to one stage (text, voice, video)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueControlCommand(ctx *commandContext, verb, short string, call func(*ipc.Client, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <stage>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				if err := call(client, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Queue %s: %s\n", args[0], verb)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <stage>",
		Short: "Remove every job from a stage queue and stop it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClear(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Removed %d job(s) from the %s queue\n", resp.Removed, args[0])
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Requeue an errored job at the front of its stage queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobRetry(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Job %d requeued at the front of the %s queue\n", resp.Job.ID, resp.Job.Stage)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Remove a single queued job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.JobRemove(id); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Removed job %d\n", id)
				return nil
			})
		},
	}
}
