package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"newscast/internal/catalog"
	"newscast/internal/config"
	"newscast/internal/logging"
	"newscast/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// session bundles the manager with the catalog it writes to.
type session struct {
	cfg     *config.Config
	manager *workflow.Manager
	catalog *catalog.Store
}

// withSession opens the catalog, builds the production stages, reconciles
// orphaned episodes, and hands the manager to fn. Everything is closed when
// fn returns.
func (c *commandContext) withSession(ctx context.Context, fn func(*session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	stages, err := workflow.BuildStages(cfg, logger)
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	mgr, err := workflow.NewManager(cfg, stages, store, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if sealed, err := mgr.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile episodes: %w", err)
	} else if sealed > 0 {
		logger.Info("sealed interrupted episodes", logging.Int("count", sealed))
	}
	return fn(&session{cfg: cfg, manager: mgr, catalog: store})
}

// resolveRequestID accepts a request id, an episode number, or an episode id
// such as episode_3.
func (s *session) resolveRequestID(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	number, err := strconv.Atoi(strings.TrimPrefix(ref, "episode_"))
	if err != nil {
		return ref, nil
	}
	rec, err := s.catalog.GetByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("episode %d not found", number)
	}
	return rec.RequestID, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
