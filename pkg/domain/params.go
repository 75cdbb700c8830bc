package domain

import "math"

// GenParams are the parameters a path graph is generated from.
type GenParams struct {
	// Kind selects the generator variant. Empty means the default variant.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`

	NodeBudget         int     `json:"node_budget" yaml:"node_budget" mapstructure:"node_budget"`
	MaxBranches        int     `json:"max_branches" yaml:"max_branches" mapstructure:"max_branches"`
	MaxHeight          int     `json:"max_height" yaml:"max_height" mapstructure:"max_height"`
	SpecialProbability float64 `json:"special_probability" yaml:"special_probability" mapstructure:"special_probability"`

	RoomPool     []string `json:"room_pool" yaml:"room_pool" mapstructure:"room_pool"`
	BossRoomPool []string `json:"boss_room_pool,omitempty" yaml:"boss_room_pool,omitempty" mapstructure:"boss_room_pool"`

	// Environment is an opaque world reference used to resolve placement origins.
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty" mapstructure:"environment"`
}

// Validate rejects parameters that cannot produce a graph.
func (p GenParams) Validate() error {
	switch {
	case p.NodeBudget < 1:
		return &GenerationConstraintError{Field: "node_budget", Reason: "must be at least 1"}
	case p.MaxHeight < 1:
		return &GenerationConstraintError{Field: "max_height", Reason: "must be at least 1"}
	case math.IsNaN(p.SpecialProbability) || p.SpecialProbability < 0 || p.SpecialProbability > 1:
		return &GenerationConstraintError{Field: "special_probability", Reason: "must be within [0, 1]"}
	}
	return nil
}

// Branches returns the effective fan-out. A non-positive MaxBranches is treated as 1.
func (p GenParams) Branches() int {
	if p.MaxBranches < 1 {
		return 1
	}
	return p.MaxBranches
}

func (p GenParams) clone() GenParams {
	cpy := p
	cpy.RoomPool = append([]string(nil), p.RoomPool...)
	cpy.BossRoomPool = append([]string(nil), p.BossRoomPool...)
	return cpy
}
