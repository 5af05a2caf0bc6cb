package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSource() Source {
	return Source{
		Name:       "Board",
		Kind:       KindHTML,
		URL:        "https://board.example/jobs",
		NextJobRe:  `<li class="job">`,
		JobURLRe:   `href="([^"]+)"`,
		JobTitleRe: `<h2>([^<]+)</h2>`,
	}
}

func valid() Config {
	c := Default()
	c.Sources = []Source{validSource(), {Name: "Riot", Kind: KindGreenhouse, Slug: "riotgames"}}
	return c
}

func TestDefaultIsValid(t *testing.T) {
	_, v := NormalizeAndValidate(valid())
	assert.True(t, v.OK(), v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestNormalizeAndValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.App.Port = 0 }, "app.port"},
		{"driver", func(c *Config) { c.Storage.Driver = "ron" }, "storage.driver"},
		{"same backup", func(c *Config) { c.Storage.BackupPath = c.Storage.Path }, "must differ"},
		{"grace", func(c *Config) { c.Reconcile.GraceDays = 0 }, "grace_days"},
		{"interval", func(c *Config) { c.Polling.IntervalSeconds = 0 }, "interval_seconds"},
		{"cron", func(c *Config) { c.Polling.Cron = "every tuesday" }, "polling.cron"},
		{"duplicate name", func(c *Config) { c.Sources[1].Name = "board" }, "not unique"},
		{"missing title re", func(c *Config) { c.Sources[0].JobTitleRe = "" }, "job_title_re is required"},
		{"bad regex", func(c *Config) { c.Sources[0].JobURLRe = "(" }, "job_url_re"},
		{"no capture", func(c *Config) { c.Sources[0].JobTitleRe = "<h2>" }, "capture group"},
		{"relative url", func(c *Config) { c.Sources[0].URL = "/jobs" }, "absolute URL"},
		{"slug", func(c *Config) { c.Sources[1].Slug = "" }, "slug is required"},
		{"kind", func(c *Config) { c.Sources[1].Kind = "selenium" }, "kind must be"},
		{"telegram", func(c *Config) { c.Notify.Telegram.Enabled = true }, "telegram.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			_, v := NormalizeAndValidate(c)
			require.False(t, v.OK())
			assert.Contains(t, strings.Join(v.Errors, "\n"), tt.want)
		})
	}
}

func TestNormalizeDoesNotTouchInput(t *testing.T) {
	c := valid()
	c.Sources[0].Kind = "  HTML "
	c.Storage.Driver = ""
	out, v := NormalizeAndValidate(c)
	require.True(t, v.OK(), v.Errors)
	assert.Equal(t, KindHTML, out.Sources[0].Kind)
	assert.Equal(t, DriverYAML, out.Storage.Driver)
	assert.Equal(t, "  HTML ", c.Sources[0].Kind)
}

func TestCronOverridesInterval(t *testing.T) {
	c := valid()
	c.Polling.IntervalSeconds = 0
	c.Polling.Cron = "@hourly"
	_, v := NormalizeAndValidate(c)
	assert.True(t, v.OK(), v.Errors)
}

func TestLowIntervalWarns(t *testing.T) {
	c := valid()
	c.Polling.IntervalSeconds = 5
	_, v := NormalizeAndValidate(c)
	assert.True(t, v.OK())
	assert.NotEmpty(t, v.Warnings)
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("reconcile:\n  grace_days: 5\nsources:\n  - name: Riot\n    kind: greenhouse\n    slug: riot\n"), 0o644))

	t.Setenv("JOBWATCH_DATA_DIR", dir)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*24*time.Hour, c.Grace())
	assert.Equal(t, 38471, c.App.Port)
	assert.Equal(t, dir, c.App.DataDir)
	assert.Equal(t, filepath.Join(dir, "jobs.yml"), c.StorePath())
	assert.Equal(t, filepath.Join(dir, "jobs.backup.yml"), c.BackupPath())
	assert.Equal(t, "123:abc", c.Notify.Telegram.Token)
	assert.Equal(t, int64(42), c.Notify.Telegram.ChatID)
	require.Len(t, c.Sources, 1)
	assert.Equal(t, "Riot", c.Sources[0].CompanyName())
}

func TestLoadBadChatID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 1\n"), 0o644))
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := Load(path)
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JOBWATCH_TEST_A=from-file\nJOBWATCH_TEST_B=from-file\n"), 0o644))
	t.Setenv("JOBWATCH_TEST_A", "from-env")
	t.Setenv("JOBWATCH_TEST_B", "")
	os.Unsetenv("JOBWATCH_TEST_B")

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "from-env", os.Getenv("JOBWATCH_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("JOBWATCH_TEST_B"))
}

func TestEnsureUserConfig(t *testing.T) {
	dir := t.TempDir()
	p, err := EnsureUserConfig(dir, filepath.Join(dir, "nope.yml"))
	require.NoError(t, err)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, Default().Storage, c.Storage)

	// Existing files are left alone.
	require.NoError(t, os.WriteFile(p, []byte("app:\n  port: 9999\n"), 0o644))
	_, err = EnsureUserConfig(dir, "unused")
	require.NoError(t, err)
	c, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, 9999, c.App.Port)
}

func TestEnsureUserConfigCopiesDefault(t *testing.T) {
	src := filepath.Join(t.TempDir(), "default.yml")
	require.NoError(t, os.WriteFile(src, []byte("app:\n  port: 1234\n"), 0o644))
	dir := filepath.Join(t.TempDir(), "data")
	p, err := EnsureUserConfig(dir, src)
	require.NoError(t, err)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "app:\n  port: 1234\n", string(b))
}

func TestSaveAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	c := valid()
	require.NoError(t, SaveAtomic(path, c))
	c.App.Port = 4000
	require.NoError(t, SaveAtomic(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, got.App.Port)
	assert.Len(t, got.Sources, 2)

	bak, err := Load(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, 38471, bak.App.Port)

	bad := valid()
	bad.App.Port = -1
	assert.Error(t, SaveAtomic(path, bad))
}

func TestRepoDefaultConfigIsValid(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yml"))
	require.NoError(t, err)
	_, v := NormalizeAndValidate(c)
	assert.True(t, v.OK(), v.Errors)
}
