// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/docrelay/pkg/types"
)

// Resolver turns the locator returned by the storage endpoint into the URL
// reported to callers.
type Resolver interface {
	Resolve(locator string) string
}

// VerbatimResolver reports the locator exactly as the service returned it.
type VerbatimResolver struct{}

func (VerbatimResolver) Resolve(locator string) string { return locator }

// AdminResolver maps service-relative locators under {BaseURL}/admin, so
// "./oss/file/<id>" becomes "{BaseURL}/admin/oss/file/<id>". Absolute URLs
// are left untouched.
type AdminResolver struct {
	BaseURL string
}

func (r AdminResolver) Resolve(locator string) string {
	if u, err := url.Parse(locator); err == nil && u.Scheme != "" && u.Host != "" {
		return locator
	}
	base := strings.TrimRight(r.BaseURL, "/") + "/admin"
	rest := strings.TrimPrefix(locator, ".")
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return base + rest
}

// NewResolver returns the resolver selected by style.
func NewResolver(style types.URLStyle, baseURL string) (Resolver, error) {
	switch style {
	case "", types.URLStyleVerbatim:
		return VerbatimResolver{}, nil
	case types.URLStyleAdmin:
		return AdminResolver{BaseURL: baseURL}, nil
	default:
		return nil, fmt.Errorf("unknown upload url_style %q (want %q or %q)", style, types.URLStyleVerbatim, types.URLStyleAdmin)
	}
}

// RemoteID is the last "/" separated segment of a locator.
func RemoteID(locator string) string {
	locator = strings.TrimRight(locator, "/")
	if i := strings.LastIndex(locator, "/"); i >= 0 {
		return locator[i+1:]
	}
	return locator
}
