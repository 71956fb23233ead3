// Package device classifies request origins: user-agent parsing, client IP
// extraction, and best-effort geolocation. Parsing never fails; unmatched
// input degrades to explicit Unknown sentinels.
package device

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Sentinels for unclassifiable input. Callers display these as-is.
const (
	UnknownBrowser = "Unknown Browser"
	UnknownOS      = "Unknown OS"
	UnknownIP      = "unknown"

	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
)

// DeviceInfo is the structured descriptor attached to audit records.
type DeviceInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Device  string `json:"device"`
}

// Location is a coarse, best-effort origin. Absent (nil) is a normal outcome.
type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Parse maps a raw user-agent string to a device descriptor. Token order
// matters: Edge and Opera embed "Chrome", Chrome embeds "Safari".
func Parse(rawUA string) DeviceInfo {
	info := DeviceInfo{
		Browser: UnknownBrowser,
		OS:      UnknownOS,
		Device:  DeviceDesktop,
	}
	if rawUA == "" {
		return info
	}

	ua := useragent.New(rawUA)

	switch {
	case strings.Contains(rawUA, "Edg"):
		info.Browser = "Edge"
	case strings.Contains(rawUA, "OPR") || strings.Contains(rawUA, "Opera"):
		info.Browser = "Opera"
	case strings.Contains(rawUA, "Chrome"):
		info.Browser = "Chrome"
	case strings.Contains(rawUA, "Firefox"):
		info.Browser = "Firefox"
	case strings.Contains(rawUA, "Safari"):
		info.Browser = "Safari"
	}

	switch {
	case strings.Contains(rawUA, "Windows NT 10.0"):
		// NT 10.0 covers both; Windows 11 does not bump the NT version.
		info.OS = "Windows 10/11"
	case strings.Contains(rawUA, "Windows NT 6.3"):
		info.OS = "Windows 8.1"
	case strings.Contains(rawUA, "Windows NT 6.1"):
		info.OS = "Windows 7"
	case strings.Contains(rawUA, "Windows"):
		info.OS = "Windows"
	case strings.Contains(rawUA, "iPhone") || strings.Contains(rawUA, "iPad"):
		info.OS = "iOS"
	case strings.Contains(rawUA, "Mac OS X"):
		info.OS = "macOS"
	case strings.Contains(rawUA, "Android"):
		info.OS = "Android"
	case strings.Contains(rawUA, "CrOS"):
		info.OS = "ChromeOS"
	case strings.Contains(rawUA, "Linux"):
		info.OS = "Linux"
	}

	switch {
	case strings.Contains(rawUA, "iPad") || strings.Contains(rawUA, "Tablet"):
		info.Device = DeviceTablet
	case ua.Mobile() || strings.Contains(rawUA, "Mobile"):
		info.Device = DeviceMobile
	}

	return info
}

// ExtractIP pulls the client address from forwarding headers in fixed
// precedence order. Missing everything yields the "unknown" sentinel, never
// an error.
func ExtractIP(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(h.Get("X-Real-Ip")); real != "" {
		return real
	}
	if cf := strings.TrimSpace(h.Get("CF-Connecting-Ip")); cf != "" {
		return cf
	}
	return UnknownIP
}

// LocationResolver looks up a coarse location for a public IP.
// Implementations are expected to be slow and unreliable; the Service
// swallows their failures.
type LocationResolver interface {
	Resolve(ctx context.Context, ip string) (*Location, error)
}

// Service performs location resolution on top of the pure parsing functions.
type Service struct {
	resolver LocationResolver
}

// NewService builds a device service. A nil resolver means location is always
// absent, which callers must treat as normal.
func NewService(resolver LocationResolver) *Service {
	return &Service{resolver: resolver}
}

// ResolveLocation returns a best-effort location for the IP, or nil for
// private/loopback ranges, the unknown sentinel, unparsable input, and lookup
// failures. Nil is not an error.
func (s *Service) ResolveLocation(ctx context.Context, ip string) *Location {
	if s == nil || s.resolver == nil || ip == "" || ip == UnknownIP {
		return nil
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified() {
		return nil
	}

	loc, err := s.resolver.Resolve(ctx, ip)
	if err != nil {
		return nil
	}
	return loc
}

// StaticResolver resolves from a fixed table. Used in tests and for the
// two-user deployment where the interesting networks are known up front.
type StaticResolver struct {
	Entries map[string]Location
}

func (r *StaticResolver) Resolve(_ context.Context, ip string) (*Location, error) {
	if loc, ok := r.Entries[ip]; ok {
		return &loc, nil
	}
	return nil, nil
}
