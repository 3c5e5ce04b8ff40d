package service

// StaticCapabilityResolver resolves capability flags from a fixed map,
// normally filled from the caller's tier at startup. The engine consumes
// only the boolean answer; tier and billing logic stay outside its
// boundary.
type StaticCapabilityResolver struct {
	enabled map[string]bool
}

// NewStaticCapabilityResolver creates a resolver over the given flags
func NewStaticCapabilityResolver(enabled map[string]bool) *StaticCapabilityResolver {
	if enabled == nil {
		enabled = map[string]bool{}
	}
	return &StaticCapabilityResolver{enabled: enabled}
}

// IsEnabled reports whether the named capability is on
func (r *StaticCapabilityResolver) IsEnabled(capability string) bool {
	return r.enabled[capability]
}
