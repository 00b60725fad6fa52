package main

import (
	"strings"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/startup"
)

type commandContext struct {
	envFileFlag *string

	once   sync.Once
	config *config.Config
	logger ectologger.Logger
	err    error
}

func newCommandContext(envFileFlag *string) *commandContext {
	return &commandContext{envFileFlag: envFileFlag}
}

// ensureConfig loads the configuration and logger once per invocation
func (c *commandContext) ensureConfig() (*config.Config, ectologger.Logger, error) {
	c.once.Do(func() {
		var files []string
		if c.envFileFlag != nil && strings.TrimSpace(*c.envFileFlag) != "" {
			files = append(files, strings.TrimSpace(*c.envFileFlag))
		}

		cfg, err := config.Load(files...)
		if err != nil {
			c.err = err
			return
		}
		logger, err := startup.NewLogger(cfg)
		if err != nil {
			c.err = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.logger, c.err
}
