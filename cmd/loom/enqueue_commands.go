package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/ipc"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	enqueueCmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue finished projects for their next stage",
	}
	enqueueCmd.AddCommand(newEnqueueVoiceCommand(ctx))
	enqueueCmd.AddCommand(newEnqueueVideoCommand(ctx))
	return enqueueCmd
}

func newEnqueueVoiceCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "voice [project-id...]",
		Short: "Queue ready projects for voice synthesis",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.EnqueueVoice(ids, all)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Queued %d project(s) for voice synthesis\n", len(resp.Jobs))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Queue every eligible project")
	return cmd
}

func newEnqueueVideoCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var renderConfig string

	cmd := &cobra.Command{
		Use:   "video [project-id...]",
		Short: "Queue voiced projects for video rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.EnqueueVideo(ids, all, renderConfig)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Queued %d project(s) for rendering\n", len(resp.Jobs))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Queue every eligible project")
	cmd.Flags().StringVar(&renderConfig, "render-config", "", "Render configuration JSON attached to each job")
	return cmd
}
