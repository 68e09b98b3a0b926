package flowstate

import (
	"fmt"

	"tradegate/internal/types"
)

// Overlay is a session-time adjustment layered over the base verdict.
// All fields are optional; every honored effect is conservative.
type Overlay struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`

	// TPSShift is added to the base TPS. Only downward shifts are honored;
	// an overlay cannot argue a trade into existence.
	TPSShift float64 `mapstructure:"tps_shift" yaml:"tps_shift" json:"tps_shift"`

	// MinTPS raises the permission threshold when above the default.
	MinTPS float64 `mapstructure:"min_tps" yaml:"min_tps" json:"min_tps"`

	// SizeCap caps the policy size multiplier when in (0,1).
	SizeCap float64 `mapstructure:"size_cap" yaml:"size_cap" json:"size_cap"`

	// BlockArchetypes are refused outright during the session.
	BlockArchetypes []types.Strategy `mapstructure:"block_archetypes" yaml:"block_archetypes" json:"block_archetypes,omitempty"`

	// AllowArchetypes, when non-empty, is an exclusive allow list.
	AllowArchetypes []types.Strategy `mapstructure:"allow_archetypes" yaml:"allow_archetypes" json:"allow_archetypes,omitempty"`

	// StopStyle overrides the per-state stop policy when set.
	StopStyle StopStyle `mapstructure:"stop_style" yaml:"stop_style" json:"stop_style,omitempty"`
}

func (o *Overlay) apply(in Input, base Verdict) Verdict {
	v := base
	v.Overlay = o.Name

	if o.StopStyle != "" {
		v.Policy.StopStyle = o.StopStyle
	}
	if o.SizeCap > 0 && o.SizeCap < v.Policy.SizeMult {
		v.Policy.SizeMult = o.SizeCap
	}

	if len(o.AllowArchetypes) > 0 && !containsStrategy(o.AllowArchetypes, in.Archetype) {
		v.Reason = fmt.Sprintf("archetype %s outside session %q allow list", in.Archetype, o.Name)
		return blocked(v)
	}
	if containsStrategy(o.BlockArchetypes, in.Archetype) {
		v.Reason = fmt.Sprintf("archetype %s blocked during session %q", in.Archetype, o.Name)
		return blocked(v)
	}

	if o.TPSShift < 0 {
		v.TPS += o.TPSShift
	}
	if o.MinTPS > v.Threshold {
		v.Threshold = o.MinTPS
	}

	// Re-check the score after shifts; a previously blocked verdict stays
	// blocked no matter what the overlay did.
	if !base.Allowed {
		return blocked(v)
	}
	if v.TPS < v.Threshold {
		v.Reason = fmt.Sprintf("trade-permission score %.2f below session threshold %.2f", v.TPS, v.Threshold)
		return blocked(v)
	}
	v.Allowed = true
	return v
}

func containsStrategy(list []types.Strategy, s types.Strategy) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
