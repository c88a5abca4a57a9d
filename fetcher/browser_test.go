package fetcher

import (
	"net/url"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJarCookiesPreserveDomainAndExpiry(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Unix()
	exported := jarCookies([]*network.Cookie{
		{
			Name:    "cf_clearance",
			Value:   "token",
			Domain:  ".example.com",
			Path:    "/",
			Secure:  true,
			Expires: float64(expiry),
		},
		{
			Name:    "session",
			Value:   "abc",
			Domain:  "www.example.com",
			Path:    "/",
			Expires: -1,
		},
	})

	require.Len(t, exported, 2)

	assert.Equal(t, "example.com", exported[0].Domain)
	assert.Equal(t, time.Unix(expiry, 0), exported[0].Expires)
	assert.True(t, exported[0].Secure)

	assert.Equal(t, "www.example.com", exported[1].Domain)
	assert.True(t, exported[1].Expires.IsZero())
}

func TestParentDomainCookieVisibleToAssetHost(t *testing.T) {
	f, err := NewStaticFetcher()
	require.NoError(t, err)

	exported := jarCookies([]*network.Cookie{{
		Name:    "cf_clearance",
		Value:   "token",
		Domain:  ".example.com",
		Path:    "/",
		Expires: float64(time.Now().Add(time.Hour).Unix()),
	}})
	require.NoError(t, f.SetCookies("https://www.example.com/series/x/chapter-1/", exported))

	// A challenge token scoped to the parent domain must ride along on asset
	// requests to sibling hosts, not just the page host.
	assetURL, err := url.Parse("https://cdn.example.com/uploads/ch1/01.jpg")
	require.NoError(t, err)

	names := make([]string, 0, 1)
	for _, c := range f.client.Jar.Cookies(assetURL) {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "cf_clearance")
}
