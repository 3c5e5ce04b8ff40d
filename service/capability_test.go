package service

import (
	"testing"

	"github.com/wardenlabs/warden/internal/constants"
)

func TestStaticCapabilityResolver(t *testing.T) {
	resolver := NewStaticCapabilityResolver(map[string]bool{
		constants.CapabilitySemanticDedup: true,
		"experimental-autofix":            false,
	})

	if !resolver.IsEnabled(constants.CapabilitySemanticDedup) {
		t.Error("explicitly enabled capability should be on")
	}
	if resolver.IsEnabled("experimental-autofix") {
		t.Error("explicitly disabled capability should be off")
	}
	if resolver.IsEnabled("never-mentioned") {
		t.Error("unknown capabilities default to off")
	}
}

func TestStaticCapabilityResolverNilMap(t *testing.T) {
	resolver := NewStaticCapabilityResolver(nil)
	if resolver.IsEnabled(constants.CapabilitySemanticDedup) {
		t.Error("nil map means everything is off")
	}
}
