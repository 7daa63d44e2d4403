package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xdrip/internal/config"
)

func TestCampaignConfigMergesFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Sending.Workers = 2
	cfg.Sending.SkipExisting = true

	tests := []struct {
		name         string
		args         []string
		wantTmpls    []string
		wantWorkers  int
		wantSkip     bool
		wantSelected bool
	}{
		{
			name:        "config defaults",
			args:        []string{"--targets", "t.csv"},
			wantTmpls:   cfg.Sending.Templates,
			wantWorkers: 2,
			wantSkip:    true,
		},
		{
			name:         "flags override",
			args:         []string{"-t", "t.csv", "-m", "a", "-m", "b", "-w", "4", "--skip-existing=false", "--all"},
			wantTmpls:    []string{"a", "b"},
			wantWorkers:  4,
			wantSkip:     false,
			wantSelected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCampaignRunCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			var flags campaignFlags
			flags.targets, _ = cmd.Flags().GetString("targets")
			flags.messages, _ = cmd.Flags().GetStringArray("message")
			flags.workers, _ = cmd.Flags().GetInt("workers")
			flags.skipExisting, _ = cmd.Flags().GetBool("skip-existing")
			flags.all, _ = cmd.Flags().GetBool("all")

			got := flags.campaignConfig(cmd, cfg)
			assert.Equal(t, "t.csv", got.TargetsPath)
			assert.Equal(t, tt.wantTmpls, got.Templates)
			assert.Equal(t, tt.wantWorkers, got.Workers)
			assert.Equal(t, tt.wantSkip, got.SkipExisting)
			assert.Equal(t, tt.wantSelected, got.SelectAll)
			assert.Equal(t, cfg.Sending.SendPolicy, got.Policy)
		})
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), path)

	_, err := os.Stat(path)
	require.NoError(t, err)

	root = newRootCmd()
	root.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, root.Execute(), "refuses to overwrite without --force")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Sending, cfg.Sending)
}

func TestOpenRejectsUnknownTarget(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"open", "cache"})
	assert.Error(t, root.Execute())
}
