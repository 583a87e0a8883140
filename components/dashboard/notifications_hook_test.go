package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifications struct {
	channel string
	events  []ChartEvent
	err     error
}

func (r *recordingNotifications) PublishChartEvent(_ context.Context, channel string, event ChartEvent) error {
	r.channel = channel
	r.events = append(r.events, event)
	return r.err
}

func TestNotificationsHookForwardsRefreshes(t *testing.T) {
	client := &recordingNotifications{}
	service := NewService(Options{RefreshHooks: []RefreshHook{&NotificationsHook{Client: client}}})

	_, err := service.Refresh(context.Background(), "sales-trend", "import")
	require.NoError(t, err)
	require.Len(t, client.events, 1)
	assert.Equal(t, "trendcharts", client.channel)
	assert.Equal(t, "sales-trend", client.events[0].Code)
	assert.Equal(t, "import", client.events[0].Reason)
}

func TestNotificationsHookWithoutClient(t *testing.T) {
	var hook *NotificationsHook
	assert.NoError(t, hook.ChartRefreshed(context.Background(), ChartEvent{}))

	client := &recordingNotifications{err: errors.New("offline")}
	hook = &NotificationsHook{Client: client, Channel: "ops"}
	assert.Error(t, hook.ChartRefreshed(context.Background(), ChartEvent{Code: "x"}))
	assert.Equal(t, "ops", client.channel)
}

func TestResolveAssetsHost(t *testing.T) {
	t.Setenv(envEChartsCDN, "")
	assert.Equal(t, "", ResolveAssetsHost(""))
	assert.Equal(t, "https://cdn.example.com/echarts/", ResolveAssetsHost(" https://cdn.example.com/echarts "))

	t.Setenv(envEChartsCDN, "https://assets.example.com")
	assert.Equal(t, "https://assets.example.com/", ResolveAssetsHost(""))
	assert.Equal(t, "/static/", ResolveAssetsHost("/static/"))
}
