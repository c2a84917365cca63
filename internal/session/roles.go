package session

import (
	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
)

// assignRoleLocked picks the role for the next joiner so that paired role
// counts never drift apart by more than one: double-auction and
// specialized games balance buyers against sellers, sequential games
// balance first against second movers, and simultaneous games use a
// uniform role. Caller holds s.mu and has already checked capacity.
func (s *Session) assignRoleLocked() Role {
	counts := s.roleCountsLocked()

	switch s.Config.GameType.Category() {
	case engine.CategoryDoubleAuction, engine.CategorySpecialized:
		if counts[RoleBuyer] <= counts[RoleSeller] {
			return RoleBuyer
		}
		return RoleSeller
	case engine.CategorySequential:
		if counts[RoleFirstMover] <= counts[RoleSecondMover] {
			return RoleFirstMover
		}
		return RoleSecondMover
	default:
		return RoleParticipant
	}
}

// pairPlayerLocked links a sequential-game joiner with the earliest
// unpaired player of the opposite mover role. Pairing follows join order,
// so it is stable and derivable without extra state. Caller holds s.mu.
func (s *Session) pairPlayerLocked(p *Player) {
	var want Role
	switch p.Role {
	case RoleFirstMover:
		want = RoleSecondMover
	case RoleSecondMover:
		want = RoleFirstMover
	default:
		return
	}

	for _, id := range s.joinOrder {
		candidate := s.players[id]
		if candidate.Role == want && candidate.PartnerID == "" {
			candidate.PartnerID = p.ID
			p.PartnerID = candidate.ID
			return
		}
	}
}
