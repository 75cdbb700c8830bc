package codec

import "github.com/aretw0/roguepath/pkg/domain"

const (
	// DocumentType tags every encoded graph.
	DocumentType = "roguepath.graph"
	// Version is the current document version.
	Version = 1
)

type envelope struct {
	Type        string           `json:"type"`
	Version     int              `json:"version"`
	PathID      string           `json:"path_id"`
	RunID       string           `json:"run_id"`
	Environment string           `json:"environment,omitempty"`
	Params      domain.GenParams `json:"params"`
	Nodes       []nodeRecord     `json:"nodes"`
}

type nodeRecord struct {
	ID        domain.NodeID   `json:"id"`
	Level     int             `json:"level"`
	Special   bool            `json:"special"`
	Completed bool            `json:"completed"`
	RoomID    string          `json:"room_id,omitempty"`
	ParentIDs []domain.NodeID `json:"parent_ids"`
	ChildIDs  []domain.NodeID `json:"child_ids"`
}

// rawEnvelope mirrors envelope for decoding. Pointers mark fields that must be present.
type rawEnvelope struct {
	Type        *string          `mapstructure:"type"`
	Version     *int             `mapstructure:"version"`
	PathID      string           `mapstructure:"path_id"`
	RunID       string           `mapstructure:"run_id"`
	Environment string           `mapstructure:"environment"`
	Params      domain.GenParams `mapstructure:"params"`
	Nodes       []rawNode        `mapstructure:"nodes"`
}

type rawNode struct {
	ID        *int   `mapstructure:"id"`
	Level     *int   `mapstructure:"level"`
	Special   bool   `mapstructure:"special"`
	Completed bool   `mapstructure:"completed"`
	RoomID    string `mapstructure:"room_id"`
	ParentIDs []int  `mapstructure:"parent_ids"`
	ChildIDs  []int  `mapstructure:"child_ids"`
}
