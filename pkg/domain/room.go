package domain

// Coordinate is a position in an environment.
type Coordinate struct {
	World string  `json:"world,omitempty" yaml:"world,omitempty" mapstructure:"world"`
	X     float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y     float64 `json:"y" yaml:"y" mapstructure:"y"`
	Z     float64 `json:"z" yaml:"z" mapstructure:"z"`
}

// Offset translates c by o. The world of c is kept.
func (c Coordinate) Offset(o Coordinate) Coordinate {
	return Coordinate{World: c.World, X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// TimerUnits counts timer ticks, one unit per tick (nominally a second).
type TimerUnits int

// RoomDefinition is an immutable encounter template supplied by the room catalog.
type RoomDefinition struct {
	ID        string `json:"id" yaml:"id" mapstructure:"id"`
	Name      string `json:"name" yaml:"name" mapstructure:"name"`
	Structure string `json:"structure" yaml:"structure" mapstructure:"structure"`
	MinFloor  int    `json:"min_floor" yaml:"min_floor" mapstructure:"min_floor"`
	MaxFloor  int    `json:"max_floor" yaml:"max_floor" mapstructure:"max_floor"`

	TimeLimit TimerUnits `json:"time_limit" yaml:"time_limit" mapstructure:"time_limit"`
	BaseScore int        `json:"base_score" yaml:"base_score" mapstructure:"base_score"`

	SpawnPoints []SpawnPoint `json:"spawn_points" yaml:"spawn_points" mapstructure:"spawn_points"`
	Entry       Coordinate   `json:"entry" yaml:"entry" mapstructure:"entry"`
}

// ValidFor reports whether the room may be placed on the given level.
func (r RoomDefinition) ValidFor(level int) bool {
	return level >= r.MinFloor && level <= r.MaxFloor
}

// HasKeyActors reports whether any spawn point emits key actors.
func (r RoomDefinition) HasKeyActors() bool {
	for _, sp := range r.SpawnPoints {
		for _, a := range sp.Actors {
			if a.Key {
				return true
			}
		}
	}
	return false
}

// SpawnPoint is a location in a room that periodically emits actors.
type SpawnPoint struct {
	ID     string     `json:"id" yaml:"id" mapstructure:"id"`
	Offset Coordinate `json:"offset" yaml:"offset" mapstructure:"offset"`

	// Wait is the number of scheduling ticks between activations. Values below 1 mean every tick.
	Wait int `json:"wait" yaml:"wait" mapstructure:"wait"`
	// Cap bounds the number of requests the point emits until it is reset.
	Cap int `json:"cap" yaml:"cap" mapstructure:"cap"`

	Actors []ActorTemplate `json:"actors" yaml:"actors" mapstructure:"actors"`
}

// ActorTemplate describes an actor a spawn point emits. The scheduler emits
// every template of a point on each activation; Weight is carried on the
// SpawnRequest for hosts whose spawner picks variants itself.
type ActorTemplate struct {
	Type   string  `json:"type" yaml:"type" mapstructure:"type"`
	Weight int     `json:"weight,omitempty" yaml:"weight,omitempty" mapstructure:"weight"`
	Health float64 `json:"health" yaml:"health" mapstructure:"health"`
	Damage float64 `json:"damage" yaml:"damage" mapstructure:"damage"`
	Speed  float64 `json:"speed" yaml:"speed" mapstructure:"speed"`

	// Key actors must all be defeated for the room to count as cleared.
	Key bool `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	// GuardTarget actors protect a target instead of chasing the group.
	GuardTarget bool `json:"guard_target,omitempty" yaml:"guard_target,omitempty" mapstructure:"guard_target"`
}

// SpawnRequest asks the host to materialize one actor.
type SpawnRequest struct {
	PointID    string        `json:"point_id"`
	PointIndex int           `json:"point_index"`
	Actor      ActorTemplate `json:"actor"`
	Position   Coordinate    `json:"position"`
}
