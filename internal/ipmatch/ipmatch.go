// Package ipmatch tests client addresses against per-tenant allow-lists of
// literal IPs and CIDR ranges.
package ipmatch

import (
	"net"
	"strings"
)

// Matches reports whether ip is allowed by rules. An empty rule list means
// no restriction is configured and always matches. Each rule is either a
// literal IP compared by exact string equality or a CIDR range; the first
// matching rule short-circuits. Malformed rules never match and never
// produce an error.
func Matches(ip string, rules []string) bool {
	if len(rules) == 0 {
		return true
	}

	ip = strings.TrimSpace(ip)
	addr := net.ParseIP(ip)

	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}

		if strings.Contains(rule, "/") {
			if addr != nil && matchCIDR(addr, rule) {
				return true
			}
			continue
		}

		// Literal rule: exact string equality first, then a normalized
		// comparison so "::1" matches "0:0:0:0:0:0:0:1".
		if rule == ip {
			return true
		}
		if addr != nil {
			if ruleAddr := net.ParseIP(rule); ruleAddr != nil && ruleAddr.Equal(addr) {
				return true
			}
		}
	}

	return false
}

func matchCIDR(addr net.IP, rule string) bool {
	_, network, err := net.ParseCIDR(rule)
	if err != nil {
		return false
	}
	return network.Contains(addr)
}
