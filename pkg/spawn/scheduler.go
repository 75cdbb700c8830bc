// Package spawn schedules actor spawns for a room's spawn points.
package spawn

import "github.com/aretw0/roguepath/pkg/domain"

type pointState struct {
	countdown int
	count     int
	spawning  bool
}

// Scheduler emits spawn requests for a room's spawn points, one scheduling tick at a time.
// Points are evaluated in their declared order. A Scheduler is not safe for concurrent use.
type Scheduler struct {
	points []domain.SpawnPoint
	origin domain.Coordinate
	state  []pointState
}

// New creates a scheduler for points placed relative to origin. It starts in the reset state.
func New(points []domain.SpawnPoint, origin domain.Coordinate) *Scheduler {
	s := &Scheduler{
		points: append([]domain.SpawnPoint(nil), points...),
		origin: origin,
		state:  make([]pointState, len(points)),
	}
	s.Reset()
	return s
}

func wait(p domain.SpawnPoint) int {
	if p.Wait < 1 {
		return 1
	}
	return p.Wait
}

// Reset restores every point to its initial count and re-enables spawning.
func (s *Scheduler) Reset() {
	for i, p := range s.points {
		s.state[i] = pointState{
			countdown: wait(p),
			spawning:  p.Cap > 0 && len(p.Actors) > 0,
		}
	}
}

// SetOrigin moves the anchor the point offsets are applied to.
func (s *Scheduler) SetOrigin(origin domain.Coordinate) {
	s.origin = origin
}

// Stop halts every point. Counts are kept until the next Reset.
func (s *Scheduler) Stop() {
	for i := range s.state {
		s.state[i].spawning = false
	}
}

// Tick advances every point by one scheduling tick and returns the requests due.
// A due point emits one request per actor template while its count is below its cap.
func (s *Scheduler) Tick() []domain.SpawnRequest {
	var out []domain.SpawnRequest
	for i, p := range s.points {
		st := &s.state[i]
		if !st.spawning {
			continue
		}
		st.countdown--
		if st.countdown > 0 {
			continue
		}
		st.countdown = wait(p)

		pos := s.origin.Offset(p.Offset)
		for _, actor := range p.Actors {
			if st.count >= p.Cap {
				break
			}
			st.count++
			out = append(out, domain.SpawnRequest{
				PointID:    p.ID,
				PointIndex: i,
				Actor:      actor,
				Position:   pos,
			})
		}
		if st.count >= p.Cap {
			st.spawning = false
		}
	}
	return out
}

// Exhausted reports whether no point can emit anything more before a Reset.
func (s *Scheduler) Exhausted() bool {
	for _, st := range s.state {
		if st.spawning {
			return false
		}
	}
	return true
}

// KeyPending reports whether a still-spawning point can emit key actors.
func (s *Scheduler) KeyPending() bool {
	for i, p := range s.points {
		if !s.state[i].spawning {
			continue
		}
		for _, a := range p.Actors {
			if a.Key {
				return true
			}
		}
	}
	return false
}

// Counts returns the number of requests each point has emitted since the last Reset.
func (s *Scheduler) Counts() []int {
	out := make([]int, len(s.state))
	for i, st := range s.state {
		out[i] = st.count
	}
	return out
}
