package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/dbsp"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withConnection(cmd, func(conn *dbsp.Connection) error {
				projects, err := conn.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				sort.Slice(projects, func(i, j int) bool { return projects[i].ProjectID < projects[j].ProjectID })
				if asJSON {
					return writeJSON(cmd, projects)
				}
				if len(projects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Version", "Status"},
					buildProjectRows(projects),
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func buildProjectRows(projects []dbsp.ProjectDescr) [][]string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			strconv.FormatInt(int64(p.ProjectID), 10),
			p.Name,
			strconv.FormatInt(int64(p.Version), 10),
			describeStatus(p),
		})
	}
	return rows
}

func describeStatus(p dbsp.ProjectDescr) string {
	status, err := p.CompileStatus()
	if err != nil {
		return "unknown"
	}
	if status.Detail != "" {
		return status.Kind.String() + ": " + firstLine(status.Detail)
	}
	return status.Kind.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Create, compile, and inspect a project",
	}

	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectCompileCommand(ctx))
	projectCmd.AddCommand(newProjectStatusCommand(ctx))
	projectCmd.AddCommand(newProjectCodeCommand(ctx))
	projectCmd.AddCommand(newProjectUpdateCommand(ctx))
	projectCmd.AddCommand(newProjectCancelCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))

	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var sqlPath string
	var compile bool
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project from a SQL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(cmd, sqlPath)
			if err != nil {
				return err
			}
			return ctx.withConnection(cmd, func(conn *dbsp.Connection) error {
				project, err := conn.NewProject(cmd.Context(), args[0], sql)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %d (%s) at version %d\n", project.ID, project.Name, project.Version())
				if !compile {
					return nil
				}
				return compileProject(cmd, ctx, project, 0)
			})
		},
	}
	cmd.Flags().StringVarP(&sqlPath, "file", "f", "", "SQL program file (- for stdin)")
	cmd.Flags().BoolVar(&compile, "compile", false, "Compile the project after creating it")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newProjectCompileCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "compile PROJECT_ID",
		Short: "Compile a project and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				return compileProject(cmd, ctx, project, timeout)
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (defaults to compile_timeout; 0 waits indefinitely)")
	return cmd
}

func compileProject(cmd *cobra.Command, ctx *commandContext, project *dbsp.Project, timeout time.Duration) error {
	if !cmd.Flags().Changed("timeout") {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		timeout = cfg.CompileTimeout
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Compiling project %d version %d...\n", project.ID, project.Version())
	if err := project.Compile(cmd.Context(), timeout); err != nil {
		var compileErr *dbsp.CompilationError
		if errors.As(err, &compileErr) {
			fmt.Fprintln(cmd.ErrOrStderr(), compileErr.Detail)
			return fmt.Errorf("compile project %d: %s", project.ID, compileErr.Kind)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Compilation succeeded")
	return nil
}

func newProjectStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status PROJECT_ID",
		Short: "Show a project's compilation status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				status, err := project.Status(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Project: %d (%s)\n", project.ID, project.Name)
				fmt.Fprintf(out, "Version: %d\n", project.Version())
				fmt.Fprintf(out, "Status:  %s\n", status.Kind)
				if status.Detail != "" {
					fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(status.Detail))
				}
				return nil
			})
		},
	}
}

func newProjectCodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "code PROJECT_ID",
		Short: "Print a project's SQL program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				code, err := project.Code(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(code, "\n"))
				return nil
			})
		},
	}
}

func newProjectUpdateCommand(ctx *commandContext) *cobra.Command {
	var sqlPath string
	cmd := &cobra.Command{
		Use:   "update PROJECT_ID",
		Short: "Replace a project's SQL program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(cmd, sqlPath)
			if err != nil {
				return err
			}
			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				if err := project.Update(cmd.Context(), sql); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %d is now at version %d\n", project.ID, project.Version())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&sqlPath, "file", "f", "", "SQL program file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newProjectCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel PROJECT_ID",
		Short: "Cancel a queued or running compilation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				if err := project.CancelCompile(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled compilation of project %d\n", project.ID)
				return nil
			})
		},
	}
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PROJECT_ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(project *dbsp.Project) error {
				if err := project.Delete(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", project.ID)
				return nil
			})
		},
	}
}

func readSQL(cmd *cobra.Command, path string) (string, error) {
	path = strings.TrimSpace(path)
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read sql: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("read sql: program is empty")
	}
	return string(data), nil
}
