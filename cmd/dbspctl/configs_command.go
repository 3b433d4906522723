package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/dbsp"
)

func newConfigsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "configs PROJECT_ID",
		Short: "List the pipeline configs published for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				configs, err := project.Configs(cmd.Context())
				if err != nil {
					return err
				}
				sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
				if asJSON {
					return writeJSON(cmd, configs)
				}
				if len(configs) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No configs for project %d\n", project.ID)
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Version"},
					buildConfigRows(configs),
					[]columnAlignment{alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func buildConfigRows(configs []dbsp.ConfigDescr) [][]string {
	rows := make([][]string, 0, len(configs))
	for _, c := range configs {
		rows = append(rows, []string{
			strconv.FormatInt(int64(c.ConfigID), 10),
			c.Name,
			strconv.FormatInt(int64(c.Version), 10),
		})
	}
	return rows
}
