package ipmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesEmptyRules(t *testing.T) {
	assert.True(t, Matches("192.168.1.1", nil))
	assert.True(t, Matches("192.168.1.1", []string{}))
	assert.True(t, Matches("not-an-ip", nil))
}

func TestMatchesLiteral(t *testing.T) {
	assert.True(t, Matches("192.168.1.1", []string{"192.168.1.1"}))
	assert.False(t, Matches("192.168.1.2", []string{"192.168.1.1"}))

	// Exact string equality holds even for unparsable input.
	assert.True(t, Matches("garbage", []string{"garbage"}))

	// Normalized IPv6 comparison.
	assert.True(t, Matches("::1", []string{"0:0:0:0:0:0:0:1"}))
}

func TestMatchesIPv4CIDR(t *testing.T) {
	tests := []struct {
		name  string
		ip    string
		rules []string
		want  bool
	}{
		{"inside /24", "192.168.1.42", []string{"192.168.1.0/24"}, true},
		{"outside /24", "192.168.2.1", []string{"192.168.1.0/24"}, false},
		{"boundary of /24", "192.168.1.255", []string{"192.168.1.0/24"}, true},
		{"inside /16", "10.0.200.1", []string{"10.0.0.0/16"}, true},
		{"zero prefix matches all", "8.8.8.8", []string{"0.0.0.0/0"}, true},
		{"host route", "10.1.2.3", []string{"10.1.2.3/32"}, true},
		{"host route miss", "10.1.2.4", []string{"10.1.2.3/32"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.ip, tt.rules))
		})
	}
}

func TestMatchesIPv6CIDR(t *testing.T) {
	assert.True(t, Matches("2001:db8::1", []string{"2001:db8::/32"}))
	assert.False(t, Matches("2001:db9::1", []string{"2001:db8::/32"}))
	assert.True(t, Matches("fe80::aaaa", []string{"fe80::/10"}))
}

func TestMatchesMalformedRules(t *testing.T) {
	// Malformed rules degrade to non-matching, never panic or error.
	assert.False(t, Matches("192.168.1.1", []string{"bad/rule"}))
	assert.False(t, Matches("192.168.1.1", []string{"192.168.1.0/99"}))
	assert.False(t, Matches("192.168.1.1", []string{"192.168.1.0/abc"}))
	assert.False(t, Matches("192.168.1.1", []string{""}))

	// A malformed rule earlier in the list does not block a later match.
	assert.True(t, Matches("192.168.1.1", []string{"bad/rule", "192.168.1.0/24"}))
}

func TestMatchesFirstMatchWins(t *testing.T) {
	rules := []string{"10.0.0.0/8", "192.168.1.0/24", "172.16.0.0/12"}
	assert.True(t, Matches("192.168.1.7", rules))
	assert.False(t, Matches("203.0.113.9", rules))
}

func TestMatchesUnparsableCandidate(t *testing.T) {
	// Unparsable candidate can only hit literal rules.
	assert.False(t, Matches("not-an-ip", []string{"192.168.1.0/24"}))
	assert.False(t, Matches("", []string{"192.168.1.0/24"}))
}
