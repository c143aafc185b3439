package domain

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultRole is assigned to every self-registered or OAuth-created account.
const DefaultRole = RoleUser

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
