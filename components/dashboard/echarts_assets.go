package dashboard

import (
	"os"
	"strings"
)

// envEChartsCDN overrides the assets host (e.g., to point at a CDN or self-hosted bucket).
const envEChartsCDN = "TRENDCHARTS_ECHARTS_CDN"

// ResolveAssetsHost returns the configured host, falling back to
// TRENDCHARTS_ECHARTS_CDN. An empty result keeps the go-echarts default CDN.
func ResolveAssetsHost(configured string) string {
	if host := strings.TrimSpace(configured); host != "" {
		return ensureTrailingSlash(host)
	}
	return ensureTrailingSlash(strings.TrimSpace(os.Getenv(envEChartsCDN)))
}

func ensureTrailingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
