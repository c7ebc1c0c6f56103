package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// SSRFGuard validates outbound URLs before the engine dials them.
type SSRFGuard struct {
	allowedSchemes     map[string]bool
	allowPrivateIPs    bool
	allowLocalhost     bool
	allowLinkLocal     bool
	allowCloudMetadata bool
	allowedDomains     map[string]bool
}

// GuardConfig configures an SSRFGuard. Every Allow* flag defaults to false:
// network access is zero-trust until explicitly opened up.
type GuardConfig struct {
	AllowedSchemes     []string
	AllowPrivateIPs    bool
	AllowLocalhost     bool
	AllowLinkLocal     bool
	AllowCloudMetadata bool
	AllowedDomains     []string
}

// NewSSRFGuard builds a guard from config.
func NewSSRFGuard(cfg GuardConfig) *SSRFGuard {
	g := &SSRFGuard{
		allowedSchemes:     make(map[string]bool),
		allowPrivateIPs:    cfg.AllowPrivateIPs,
		allowLocalhost:     cfg.AllowLocalhost,
		allowLinkLocal:     cfg.AllowLinkLocal,
		allowCloudMetadata: cfg.AllowCloudMetadata,
		allowedDomains:     make(map[string]bool),
	}

	if len(cfg.AllowedSchemes) == 0 {
		g.allowedSchemes["http"] = true
		g.allowedSchemes["https"] = true
	} else {
		for _, scheme := range cfg.AllowedSchemes {
			g.allowedSchemes[strings.ToLower(scheme)] = true
		}
	}

	for _, domain := range cfg.AllowedDomains {
		g.allowedDomains[strings.ToLower(domain)] = true
	}

	return g
}

// ValidateURL rejects a URL that resolves to a disallowed scheme, hostname,
// or IP range.
func (g *SSRFGuard) ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if !g.allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return fmt.Errorf("%w: scheme %q", ErrInvalidProtocol, parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL missing hostname")
	}

	if len(g.allowedDomains) > 0 && !g.allowedDomains[strings.ToLower(hostname)] {
		return fmt.Errorf("%w: %s", ErrURLNotAllowed, hostname)
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return g.validateIP(ip)
	}

	if err := g.validateHostname(hostname); err != nil {
		return err
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if err := g.validateIP(ip); err != nil {
			return fmt.Errorf("%s resolves to blocked address: %w", hostname, err)
		}
	}
	return nil
}

func (g *SSRFGuard) validateIP(ip net.IP) error {
	if !g.allowLocalhost && isLocalhost(ip) {
		return ErrLocalhostBlocked
	}
	if !g.allowPrivateIPs && isPrivateIP(ip) {
		return ErrPrivateIPBlocked
	}
	if !g.allowLinkLocal && isLinkLocal(ip) {
		return fmt.Errorf("link-local addresses are blocked")
	}
	if !g.allowCloudMetadata && isCloudMetadata(ip) {
		return ErrMetadataBlocked
	}
	return nil
}

func (g *SSRFGuard) validateHostname(hostname string) error {
	hostname = strings.ToLower(hostname)

	if !g.allowLocalhost {
		for _, name := range []string{"localhost", "127.0.0.1", "::1", "0.0.0.0"} {
			if hostname == name {
				return ErrLocalhostBlocked
			}
		}
	}

	if !g.allowCloudMetadata {
		for _, name := range []string{"169.254.169.254", "metadata.google.internal", "metadata.azure.com"} {
			if hostname == name {
				return ErrMetadataBlocked
			}
		}
	}

	return nil
}

func isLocalhost(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 0 && ipv4[1] == 0 && ipv4[2] == 0 && ipv4[3] == 0
	}
	return false
}

func isPrivateIP(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		if ipv4[0] == 10 {
			return true
		}
		if ipv4[0] == 172 && ipv4[1] >= 16 && ipv4[1] <= 31 {
			return true
		}
		if ipv4[0] == 192 && ipv4[1] == 168 {
			return true
		}
		return false
	}
	return len(ip) == 16 && (ip[0]&0xfe) == 0xfc
}

func isLinkLocal(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 169 && ipv4[1] == 254
	}
	if len(ip) == 16 && ip[0] == 0xfe && (ip[1]&0xc0) == 0x80 {
		return true
	}
	return ip.IsLinkLocalUnicast()
}

func isCloudMetadata(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 169 && ipv4[1] == 254 && ipv4[2] == 169 && ipv4[3] == 254
	}
	if len(ip) == 16 && ip[0] == 0xfd && ip[1] == 0x00 && ip[2] == 0x0e && ip[3] == 0xc2 {
		isZeros := true
		for i := 4; i < 14; i++ {
			if ip[i] != 0 {
				isZeros = false
				break
			}
		}
		return isZeros && ip[14] == 0x02 && ip[15] == 0x54
	}
	return false
}
