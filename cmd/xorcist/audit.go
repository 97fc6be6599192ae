package main

import (
	"github.com/RowanDark/xorcist/internal/config"
	"github.com/RowanDark/xorcist/internal/logging"
)

// openAudit returns an audit logger writing to cfg.AuditLog. Without a
// configured path commands stay quiet and nothing is recorded.
func openAudit(cfg config.Config, component string) (*logging.AuditLogger, error) {
	if cfg.AuditLog == "" {
		return logging.Discard().WithComponent(component), nil
	}
	return logging.NewAuditLogger(component, logging.WithoutStdout(), logging.WithFile(cfg.AuditLog))
}
