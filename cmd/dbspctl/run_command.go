package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/dbsp"
	"github.com/five82/dbspctl/internal/config"
	"github.com/five82/dbspctl/internal/kafka"
	"github.com/five82/dbspctl/internal/workspace"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var pipelinePath string
	var name string
	var compile bool
	var ensureTopics bool
	cmd := &cobra.Command{
		Use:   "run PROJECT_ID",
		Short: "Publish a pipeline config for a project and start a pipeline",
		Long: "Reads the endpoints file, publishes it as a config of the project, and starts a pipeline.\n" +
			"Running the same config name again updates the config recorded in the workspace file\n" +
			"instead of creating a new one.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			file, err := config.LoadPipelineFile(pipelinePath)
			if err != nil {
				return err
			}
			if n := strings.TrimSpace(name); n != "" {
				file.Name = n
			}
			if strings.TrimSpace(file.Name) == "" {
				return errors.New("config name is required (set name in the pipeline file or pass --name)")
			}

			if ensureTopics {
				if err := provisionTopics(cmd, cfg.KafkaBrokers, kafka.Topics(file.Inputs, file.Outputs), 1, 1); err != nil {
					return err
				}
			}

			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				if compile {
					if err := compileProject(cmd, ctx, project, 0); err != nil {
						return err
					}
				}
				pipeline, err := runPipeline(cmd, cfg.Workspace, project, file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started pipeline %d on port %d\n", pipeline.ID, pipeline.Port)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&pipelinePath, "pipeline", "p", "", "Pipeline endpoints file (TOML)")
	cmd.Flags().StringVar(&name, "name", "", "Config name (overrides the file)")
	cmd.Flags().BoolVar(&compile, "compile", false, "Compile the project first")
	cmd.Flags().BoolVar(&ensureTopics, "ensure-topics", false, "Create the Kafka topics the endpoints reference")
	_ = cmd.MarkFlagRequired("pipeline")
	return cmd
}

// runPipeline publishes file as a config of project and starts a pipeline,
// reusing and then updating the remote config recorded in the workspace.
func runPipeline(cmd *cobra.Command, workspacePath string, project *dbsp.Project, file config.PipelineFile) (*dbsp.Pipeline, error) {
	ws, err := workspace.Load(workspacePath)
	if err != nil {
		return nil, err
	}

	dirty := false
	if entry, ok := ws.Lookup(project.ID, file.Name); ok {
		live, err := configExists(cmd, project, dbsp.ConfigID(entry.ConfigID))
		if err != nil {
			return nil, err
		}
		if !live {
			fmt.Fprintf(cmd.OutOrStdout(), "Config %q no longer exists on the server, creating it again\n", file.Name)
			ws.Forget(project.ID, file.Name)
			dirty = true
		}
	}

	pc, err := newProjectConfig(project, file)
	if err != nil {
		return nil, err
	}
	restored := ws.Restore(project.ID, pc)
	if restored {
		fmt.Fprintf(cmd.OutOrStdout(), "Updating existing config %q\n", file.Name)
	}

	pipeline, runErr := pc.Run(cmd.Context())
	if restored && isStaleConfig(runErr) {
		// Deleted between the listing and the update; publish afresh.
		fmt.Fprintf(cmd.OutOrStdout(), "Config %q no longer exists on the server, creating it again\n", file.Name)
		ws.Forget(project.ID, file.Name)
		dirty = true
		if pc, err = newProjectConfig(project, file); err != nil {
			return nil, err
		}
		pipeline, runErr = pc.Run(cmd.Context())
	}
	// The config may have been published even when the pipeline failed.
	if id, version, ok := pc.RemoteID(); ok {
		entry := workspace.Entry{
			ProjectID:     int64(project.ID),
			ConfigName:    file.Name,
			ConfigID:      int64(id),
			ConfigVersion: int64(version),
		}
		if pipeline != nil {
			entry.PipelineID = int64(pipeline.ID)
		}
		ws.Record(entry)
		dirty = true
	}
	if dirty {
		if err := workspace.Save(workspacePath, ws); err != nil && runErr == nil {
			return nil, err
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	return pipeline, nil
}

func newProjectConfig(project *dbsp.Project, file config.PipelineFile) (*dbsp.ProjectConfig, error) {
	pc, err := project.NewConfig(file.Name, file.Workers)
	if err != nil {
		return nil, err
	}
	if err := file.Apply(pc); err != nil {
		return nil, err
	}
	return pc, nil
}

func isStaleConfig(err error) bool {
	var srvErr *dbsp.ServerError
	return errors.As(err, &srvErr) && srvErr.Op == "update config" && dbsp.IsNotFound(err)
}

func configExists(cmd *cobra.Command, project *dbsp.Project, id dbsp.ConfigID) (bool, error) {
	configs, err := project.Configs(cmd.Context())
	if err != nil {
		return false, err
	}
	for _, c := range configs {
		if c.ConfigID == id {
			return true, nil
		}
	}
	return false, nil
}
