package entity

// Role is the tag a connection carries on the authoritative server.
type Role string

const (
	RoleX         Role = "X"
	RoleO         Role = "O"
	RoleSpectator Role = "spectator"
	RoleRelay     Role = "relay"
)

func RoleFor(mark Mark) Role {
	switch mark {
	case PlayerX:
		return RoleX
	case PlayerO:
		return RoleO
	default:
		return RoleSpectator
	}
}

// Mark returns the player mark behind a role, if the role is a player role.
func (r Role) Mark() (Mark, bool) {
	switch r {
	case RoleX:
		return PlayerX, true
	case RoleO:
		return PlayerO, true
	default:
		return EmptyCell, false
	}
}

func (r Role) IsPlayer() bool {
	_, ok := r.Mark()
	return ok
}

// Connection is an open channel known to the authoritative server. ID never changes; Role does.
type Connection struct {
	ID   string
	Role Role
}

// RegisterAsRelay - moves the connection to RoleRelay and reports the player mark it gave up.
func (that *Connection) RegisterAsRelay() (Mark, bool) {
	mark, held := that.Role.Mark()
	that.Role = RoleRelay
	return mark, held
}

func (that *Connection) IsRelay() bool {
	return that.Role == RoleRelay
}
