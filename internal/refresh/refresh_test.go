package refresh

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekcal/internal/config"
	"weekcal/internal/schedule"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.Schedule = map[string][]string{
		"2025-09-02": {"10:15"},
	}
	return cfg
}

func fixedLoader(cfg *config.Config) *Loader {
	l := NewLoader(cfg, time.UTC)
	l.now = func() time.Time { return time.Date(2025, 9, 4, 12, 0, 0, 0, time.UTC) }
	return l
}

func TestBuild_StaticAndICS(t *testing.T) {
	cfg := testConfig(t)
	feed := filepath.Join(t.TempDir(), "feed.ics")
	require.NoError(t, os.WriteFile(feed, []byte(strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"UID:a@test",
		"DTSTART:20250902T080000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")), 0o600))
	cfg.ICS = []config.ICSConfig{{ID: "clinic", URL: feed}, {ID: "blank"}}

	store, err := fixedLoader(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []schedule.SlotTime{"10:15", "08:00"}, store.SlotsFor("2025-09-02"))
	assert.Equal(t, []schedule.SlotTime{"08:00", "10:15"}, store.SortedSlotsFor("2025-09-02"))
}

func TestBuild_FailingFeedKeepsStaticBookings(t *testing.T) {
	cfg := testConfig(t)
	cfg.ICS = []config.ICSConfig{{ID: "missing", URL: filepath.Join(t.TempDir(), "nope.ics")}}

	store, err := fixedLoader(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Slots())
}

func TestReload_KeepsCurrentStoreOnError(t *testing.T) {
	cfg := testConfig(t)
	live := schedule.NewLive(nil)
	l := fixedLoader(cfg)

	require.NoError(t, l.Reload(context.Background(), live))
	assert.Equal(t, 1, live.Current().Slots())

	cfg.Schedule = map[string][]string{"02/09/2025": {"10:15"}}
	assert.Error(t, l.Reload(context.Background(), live))
	assert.Equal(t, []schedule.SlotTime{"10:15"}, live.SlotsFor("2025-09-02"))
}

func TestStart_RejectsInvalidCron(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshCron = "every now and then"

	_, err := Start(context.Background(), fixedLoader(cfg), schedule.NewLive(nil))
	assert.Error(t, err)
}

func TestStart_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, err := Start(ctx, fixedLoader(testConfig(t)), schedule.NewLive(nil))
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	cancel()
}
