package sshutil

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// CommandRunner executes a command on a (possibly remote) system.
// Providers use it to reload the DNS server after rewriting its data files.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// SSHCommandRunner implements CommandRunner over an SSH session.
type SSHCommandRunner struct {
	client *Client
	logger *slog.Logger
}

// NewSSHCommandRunner creates a new SSH-based CommandRunner.
// The underlying SSH client must be connected before use.
func NewSSHCommandRunner(client *Client, logger *slog.Logger) *SSHCommandRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSHCommandRunner{client: client, logger: logger}
}

// Run executes a command on the remote system and fails on non-zero exit.
func (cr *SSHCommandRunner) Run(ctx context.Context, command string) error {
	conn, err := cr.client.Connection()
	if err != nil {
		return fmt.Errorf("getting SSH connection: %w", err)
	}

	session, err := conn.NewSession()
	if err != nil {
		return fmt.Errorf("creating SSH session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	cr.logger.Debug("executing command", slog.String("command", command))

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return ctx.Err()
	case err := <-done:
		if err != nil {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = strings.TrimSpace(stdout.String())
			}
			if detail != "" {
				return fmt.Errorf("command %q failed: %w: %s", command, err, detail)
			}
			return fmt.Errorf("command %q failed: %w", command, err)
		}
		return nil
	}
}
