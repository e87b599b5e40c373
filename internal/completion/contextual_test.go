package completion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextSourceDirectoriesForCd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "projects"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pictures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.txt"), nil, 0o600))

	source := NewContextSource()
	candidates := source.Complete(context.Background(), Word{Text: dir + "/p", Command: "cd"})

	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, c.Value)
	}
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "projects") + "/",
		filepath.Join(dir, "pictures") + "/",
	}, values, "files do not complete for cd")
}

func TestContextSourceVariableNamesForExport(t *testing.T) {
	t.Setenv("WREN_CTX_TEST_VAR", "x")

	source := NewContextSource()
	candidates := source.Complete(context.Background(), Word{Text: "WREN_CTX_TEST", Command: "export"})

	require.NotEmpty(t, candidates)
	assert.Equal(t, "WREN_CTX_TEST_VAR", candidates[0].Value)
}

func TestContextSourceKillSignals(t *testing.T) {
	source := NewContextSource()

	candidates := source.Complete(context.Background(), Word{Text: "-T", Command: "kill"})
	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, c.Value)
	}
	assert.ElementsMatch(t, []string{"-TERM", "-TSTP", "-TTIN", "-TTOU"}, values)

	assert.Empty(t, source.Complete(context.Background(), Word{Text: "123", Command: "kill"}),
		"a bare number is a PID, not a signal")
}

func TestContextSourceIgnoresUnknownCommands(t *testing.T) {
	source := NewContextSource()

	assert.Empty(t, source.Complete(context.Background(), Word{Text: "x", Command: "cat"}))
	assert.Empty(t, source.Complete(context.Background(), Word{Text: "cd", CommandPosition: true}))
}

func TestParseSSHConfig(t *testing.T) {
	sshDir := t.TempDir()
	include := filepath.Join(sshDir, "extra")
	require.NoError(t, os.WriteFile(include, []byte("Host fromshared\n"), 0o600))

	config := filepath.Join(sshDir, "config")
	require.NoError(t, os.WriteFile(config, []byte(`
# comment
Host web db
    HostName example.com
Host *.wildcard
Include extra
`), 0o600))

	hosts := make(map[string]bool)
	parseSSHConfig(config, sshDir, hosts, make(map[string]bool))

	assert.True(t, hosts["web"])
	assert.True(t, hosts["db"])
	assert.True(t, hosts["fromshared"], "Include directive is followed")
	assert.False(t, hosts["*.wildcard"], "wildcard patterns are skipped")
}

func TestParseKnownHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(path, []byte(`
git.example.com ssh-ed25519 AAAA
[bastion.example.com]:2222 ssh-rsa AAAA
192.168.1.10 ssh-rsa AAAA
|1|hash|hash ssh-rsa AAAA
@revoked bad.example.com ssh-rsa AAAA
`), 0o600))

	hosts := make(map[string]bool)
	parseKnownHosts(path, hosts)

	assert.True(t, hosts["git.example.com"])
	assert.True(t, hosts["bastion.example.com"], "bracketed host:port form is unwrapped")
	assert.True(t, hosts["bad.example.com"], "marker prefix is stripped")
	assert.False(t, hosts["192.168.1.10"], "IP addresses are skipped")
	assert.Len(t, hosts, 3)
}

func TestLooksLikeIPAddress(t *testing.T) {
	assert.True(t, looksLikeIPAddress("192.168.1.1"))
	assert.True(t, looksLikeIPAddress("fe80::1"))
	assert.False(t, looksLikeIPAddress("example.com"))
	assert.False(t, looksLikeIPAddress("host"))
}

func TestCompleteMakeTargets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Makefile"), []byte(`
.PHONY: all clean
all: build
	go build ./...
build test:
	go test ./...
# comment:
VAR := value
`), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	candidates := completeMakeTargets("")
	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, c.Value)
	}
	assert.ElementsMatch(t, []string{"all", "build", "test"}, values)
}
