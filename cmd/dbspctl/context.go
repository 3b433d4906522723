package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/dbsp"
	"github.com/five82/dbspctl/internal/config"
	"github.com/five82/dbspctl/internal/logging"
)

type globalFlags struct {
	config   string
	server   string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger      *slog.Logger
	closeLogger func() error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if server := strings.TrimSpace(c.flags.server); server != "" {
			cfg.Server = server
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.LogLevel = level
		}
		c.config = &cfg
	})
	return c.config, c.configErr
}

// loggerFor builds the logger lazily. Commands that draw a full-screen UI
// pass quiet so console output does not corrupt the display.
func (c *commandContext) loggerFor(quiet bool) (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogPath(),
	}
	if quiet {
		opts.Level = "error"
	}
	logger, closeFn, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	c.closeLogger = closeFn
	return logger, nil
}

func (c *commandContext) close() error {
	if c.closeLogger == nil {
		return nil
	}
	err := c.closeLogger()
	c.closeLogger = nil
	return err
}

func (c *commandContext) connect(ctx context.Context, quiet bool) (*dbsp.Connection, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(quiet)
	if err != nil {
		return nil, err
	}
	return dbsp.Open(ctx, cfg.Server,
		dbsp.WithRequestTimeout(cfg.RequestTimeout),
		dbsp.WithPollInterval(cfg.PollInterval),
		dbsp.WithLogger(logger),
	)
}

func (c *commandContext) withConnection(cmd *cobra.Command, fn func(*dbsp.Connection) error) error {
	conn, err := c.connect(cmd.Context(), false)
	if err != nil {
		return err
	}
	return fn(conn)
}

func (c *commandContext) withProject(cmd *cobra.Command, arg string, fn func(*dbsp.Project) error) error {
	id, err := parseProjectID(arg)
	if err != nil {
		return err
	}
	return c.withConnection(cmd, func(conn *dbsp.Connection) error {
		project, err := conn.OpenProject(cmd.Context(), id)
		if err != nil {
			return err
		}
		return fn(project)
	})
}

func (c *commandContext) withPipeline(cmd *cobra.Command, arg string, fn func(*dbsp.Pipeline) error) error {
	id, err := parsePipelineID(arg)
	if err != nil {
		return err
	}
	return c.withConnection(cmd, func(conn *dbsp.Connection) error {
		return fn(conn.AttachPipeline(id))
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseProjectID(arg string) (dbsp.ProjectID, error) {
	id, err := parseID("project", arg)
	return dbsp.ProjectID(id), err
}

func parsePipelineID(arg string) (dbsp.PipelineID, error) {
	id, err := parseID("pipeline", arg)
	return dbsp.PipelineID(id), err
}

func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}
