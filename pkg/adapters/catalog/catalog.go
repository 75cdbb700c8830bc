// Package catalog loads room definitions, the scoring curve and default
// generation parameters from a YAML file.
package catalog

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/aretw0/roguepath/pkg/adapters/memory"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/room"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Version is the only supported file version.
const Version = 1

// TimeUnit is the duration of one timer unit when limits are written as durations.
const TimeUnit = time.Second

type fileConfig struct {
	Version int                     `mapstructure:"version"`
	Rooms   []domain.RoomDefinition `mapstructure:"rooms"`
	Scoring scoringConfig           `mapstructure:"scoring"`
	Params  domain.GenParams        `mapstructure:"generation"`
}

type scoringConfig struct {
	Curve string      `mapstructure:"curve"`
	Bonus *float64    `mapstructure:"bonus"`
	Tiers []room.Tier `mapstructure:"tiers"`
	Floor float64     `mapstructure:"floor"`
}

// File is a loaded catalog file.
type File struct {
	Rooms  *memory.Catalog
	Scorer room.Scorer
	// Params holds default generation parameters; zero when the file has none.
	Params domain.GenParams
}

// Load reads and parses a catalog file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a catalog document.
func Parse(data []byte) (*File, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	var cfg fileConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.DecodeHookFuncType(durationUnitsHook),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(tree); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	if cfg.Version != Version {
		return nil, fmt.Errorf("unsupported catalog version: %d", cfg.Version)
	}
	for _, r := range cfg.Rooms {
		if err := validateRoom(r); err != nil {
			return nil, err
		}
	}

	rooms, err := memory.NewCatalog(cfg.Rooms...)
	if err != nil {
		return nil, err
	}
	scorer, err := cfg.Scoring.scorer()
	if err != nil {
		return nil, err
	}
	if err := checkPools(rooms, cfg.Params); err != nil {
		return nil, err
	}

	return &File{Rooms: rooms, Scorer: scorer, Params: cfg.Params}, nil
}

func validateRoom(r domain.RoomDefinition) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("room without id")
	case r.MinFloor > r.MaxFloor:
		return fmt.Errorf("room %q: min_floor %d above max_floor %d", r.ID, r.MinFloor, r.MaxFloor)
	case r.TimeLimit < 1:
		return fmt.Errorf("room %q: time_limit must be positive", r.ID)
	case r.BaseScore < 0:
		return fmt.Errorf("room %q: base_score must not be negative", r.ID)
	}
	return nil
}

func checkPools(rooms *memory.Catalog, p domain.GenParams) error {
	for _, pool := range [][]string{p.RoomPool, p.BossRoomPool} {
		for _, id := range pool {
			if _, ok := rooms.Room(id); !ok {
				return fmt.Errorf("generation pool references unknown room %q", id)
			}
		}
	}
	return nil
}

func (s scoringConfig) scorer() (room.Scorer, error) {
	switch s.Curve {
	case "", "linear":
		bonus := 1.0
		if s.Bonus != nil {
			bonus = *s.Bonus
		}
		if bonus < 0 {
			return room.Scorer{}, fmt.Errorf("scoring bonus must not be negative")
		}
		return room.Scorer{Curve: room.LinearCurve{Bonus: bonus}}, nil
	case "tiered":
		curve, err := room.NewTieredCurve(s.Tiers, s.Floor)
		if err != nil {
			return room.Scorer{}, fmt.Errorf("scoring: %w", err)
		}
		return room.Scorer{Curve: curve}, nil
	case "flat":
		return room.Scorer{}, nil
	}
	return room.Scorer{}, fmt.Errorf("unknown scoring curve %q", s.Curve)
}

var timerUnitsType = reflect.TypeOf(domain.TimerUnits(0))

// durationUnitsHook lets timer limits be written as durations ("90s", "2m").
// Other integer fields never accept strings.
func durationUnitsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != timerUnitsType {
		return data, nil
	}
	d, err := time.ParseDuration(data.(string))
	if err != nil {
		return nil, fmt.Errorf("time limit %q: %w", data, err)
	}
	return domain.TimerUnits(d / TimeUnit), nil
}
