package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/dbsp"
)

func newPipelinesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var includeKilled bool
	cmd := &cobra.Command{
		Use:   "pipelines PROJECT_ID",
		Short: "List a project's pipelines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withConnection(cmd, func(conn *dbsp.Connection) error {
				pipelines, err := conn.ListPipelines(cmd.Context(), id)
				if err != nil {
					return err
				}
				pipelines = filterPipelines(pipelines, includeKilled)
				if asJSON {
					return writeJSON(cmd, pipelines)
				}
				if len(pipelines) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No pipelines for project %d\n", id)
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Project Version", "Port", "Killed", "Created"},
					buildPipelineRows(pipelines),
					[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&includeKilled, "all", false, "Include pipelines that were shut down")
	return cmd
}

func filterPipelines(pipelines []dbsp.PipelineDescr, includeKilled bool) []dbsp.PipelineDescr {
	out := make([]dbsp.PipelineDescr, 0, len(pipelines))
	for _, p := range pipelines {
		if p.Killed && !includeKilled {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PipelineID < out[j].PipelineID })
	return out
}

func buildPipelineRows(pipelines []dbsp.PipelineDescr) [][]string {
	rows := make([][]string, 0, len(pipelines))
	for _, p := range pipelines {
		rows = append(rows, []string{
			strconv.FormatInt(int64(p.PipelineID), 10),
			strconv.FormatInt(int64(p.ProjectVersion), 10),
			strconv.Itoa(int(p.Port)),
			yesNo(p.Killed),
			p.Created,
		})
	}
	return rows
}

func newPipelineCommand(ctx *commandContext) *cobra.Command {
	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Control a running pipeline",
	}

	pipelineCmd.AddCommand(newPipelineActionCommand(ctx, "pause", "Pause a running pipeline", "Paused",
		func(cmd *cobra.Command, p *dbsp.Pipeline) error { return p.Pause(cmd.Context()) }))
	pipelineCmd.AddCommand(newPipelineActionCommand(ctx, "shutdown", "Shut a pipeline down", "Shut down",
		func(cmd *cobra.Command, p *dbsp.Pipeline) error { return p.Shutdown(cmd.Context()) }))
	pipelineCmd.AddCommand(newPipelineActionCommand(ctx, "delete", "Delete a shut down pipeline", "Deleted",
		func(cmd *cobra.Command, p *dbsp.Pipeline) error { return p.Delete(cmd.Context()) }))
	pipelineCmd.AddCommand(newPipelineActionCommand(ctx, "teardown", "Shut a pipeline down and delete it", "Tore down",
		func(cmd *cobra.Command, p *dbsp.Pipeline) error { return p.Teardown(cmd.Context()) }))
	pipelineCmd.AddCommand(newPipelineDocumentCommand(ctx, "status", "Show a pipeline's runtime statistics",
		func(cmd *cobra.Command, p *dbsp.Pipeline) (map[string]any, error) { return p.Status(cmd.Context()) }))
	pipelineCmd.AddCommand(newPipelineDocumentCommand(ctx, "metadata", "Show a pipeline's metadata",
		func(cmd *cobra.Command, p *dbsp.Pipeline) (map[string]any, error) { return p.Metadata(cmd.Context()) }))

	return pipelineCmd
}

func newPipelineActionCommand(ctx *commandContext, name, short, done string, action func(*cobra.Command, *dbsp.Pipeline) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " PIPELINE_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, args[0], func(p *dbsp.Pipeline) error {
				if err := action(cmd, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s pipeline %d\n", done, p.ID)
				return nil
			})
		},
	}
}

func newPipelineDocumentCommand(ctx *commandContext, name, short string, fetch func(*cobra.Command, *dbsp.Pipeline) (map[string]any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " PIPELINE_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, args[0], func(p *dbsp.Pipeline) error {
				doc, err := fetch(cmd, p)
				if err != nil {
					return err
				}
				return writeJSON(cmd, doc)
			})
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
