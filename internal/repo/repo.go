// SPDX-License-Identifier: Apache-2.0

// Package repo acquires codebases to scan. Cloning shells out to the gh
// CLI so the user's existing GitHub authentication is reused. The
// scanner core never mutates a tree it did not create; only clones made
// here are ever deleted.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Clone clones a GitHub repository ("org/repo") into a fresh temp
// directory and returns the checkout path plus a cleanup function that
// removes the whole temp directory.
func Clone(ctx context.Context, repository string, logger *slog.Logger) (string, func(), error) {
	tmp, err := os.MkdirTemp("", "tabledep-scan-")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(tmp); err != nil {
			logger.Warn("cleanup failed", "path", tmp, "error", err)
		}
	}

	dest := filepath.Join(tmp, "repo")
	logger.Info("cloning repository", "repo", repository, "dest", dest)

	cmd := exec.CommandContext(ctx, "gh", "repo", "clone", repository, dest)
	out, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("cloning %s: %s: %w", repository, strings.TrimSpace(string(out)), err)
	}

	logger.Info("clone complete", "repo", repository)
	return dest, cleanup, nil
}
