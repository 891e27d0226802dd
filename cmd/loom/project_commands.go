package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/api"
	"loom/internal/ipc"
	"loom/internal/queue"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage content projects",
	}
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))
	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var title string
	var resourceID string

	cmd := &cobra.Command{
		Use:   "create <prompt>",
		Short: "Submit a prompt and queue it for script generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			prompt := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectCreate(ipc.ProjectCreateRequest{
					Title:      title,
					Prompt:     prompt,
					ResourceID: resourceID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Created project %d (%s); queued text job %d\n",
					resp.Project.ID, resp.Project.Title, resp.Job.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Project title (derived from the prompt when omitted)")
	cmd.Flags().StringVar(&resourceID, "resource", "", "Shared resource this project's generation depends on")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var projects []api.ProjectView
				if client != nil {
					resp, err := client.ProjectList(statuses)
					if err != nil {
						return err
					}
					projects = resp.Projects
				} else {
					parsed := make([]queue.ProjectStatus, 0, len(statuses))
					for _, raw := range statuses {
						status, ok := queue.ParseProjectStatus(raw)
						if !ok {
							return fmt.Errorf("unknown project status %q", raw)
						}
						parsed = append(parsed, status)
					}
					records, err := store.ListProjects(cmd.Context(), parsed...)
					if err != nil {
						return err
					}
					projects = api.FromProjects(records)
				}
				if asJSON {
					return writeJSON(cmd, ipc.ProjectListResponse{Projects: projects})
				}
				if len(projects) == 0 {
					fmt.Fprintln(stdout, "No projects")
					return nil
				}
				rows := make([][]string, 0, len(projects))
				for _, project := range projects {
					message := project.ErrorMessage
					if message == "" {
						message = project.VideoFile
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", project.ID),
						project.Title,
						project.Status,
						project.ResourceID,
						message,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Title", "Status", "Resource", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by project status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one project in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectDescribe(id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				project := resp.Project
				fmt.Fprintf(stdout, "Project %d: %s\n", project.ID, project.Title)
				fmt.Fprintf(stdout, "  Status:   %s\n", project.Status)
				if project.ResourceID != "" {
					fmt.Fprintf(stdout, "  Resource: %s\n", project.ResourceID)
				}
				fmt.Fprintf(stdout, "  Prompt:   %s\n", project.Prompt)
				if project.VideoFile != "" {
					fmt.Fprintf(stdout, "  Video:    %s\n", project.VideoFile)
				}
				if project.ErrorMessage != "" {
					fmt.Fprintf(stdout, "  Error:    %s\n", project.ErrorMessage)
				}
				if project.Content != "" {
					fmt.Fprintln(stdout)
					fmt.Fprintln(stdout, project.Content)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of the detail view")
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and any queued job for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ProjectDelete(id); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Deleted project %d\n", id)
				return nil
			})
		},
	}
}
