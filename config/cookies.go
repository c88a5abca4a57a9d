package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"toonpull/parser"
)

// StoredCookie is one entry of the optional cookie file: a pre-supplied
// credential or CDN challenge token exported from a browser session.
type StoredCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
	Secure bool   `json:"secure"`
}

// LoadCookieFile reads a JSON cookie file and converts its entries to
// http.Cookie values ready for a cookie jar or browser context. A missing
// path ("" configured) yields an empty slice, not an error.
func LoadCookieFile(path string) ([]*http.Cookie, error) {
	if path == "" {
		return nil, nil
	}

	expanded, err := parser.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	var stored []StoredCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if c.Name == "" {
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: strings.TrimPrefix(c.Domain, "."),
			Path:   path,
			Secure: c.Secure,
		})
	}

	return cookies, nil
}
