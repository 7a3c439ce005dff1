//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

var (
	composeFile    = getenv("E2E_COMPOSE_FILE", "")
	composeService = getenv("E2E_SERVICE", "storefront")
)

// composeArgs prefixes a docker compose subcommand with the optional -f flag.
func composeArgs(sub ...string) []string {
	args := []string{"compose"}
	if composeFile != "" {
		args = append(args, "-f", composeFile)
	}
	return append(args, sub...)
}

// restartStorefront bounces the container and blocks until /readyz passes again.
// Anything not written to the catalog store is gone afterwards.
func restartStorefront(t *testing.T, ctx context.Context) {
	t.Helper()

	args := composeArgs("restart", composeService)
	out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput()
	if err != nil {
		t.Fatalf("docker %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	waitReady(t, ctx, baseURL+"/readyz")
}
