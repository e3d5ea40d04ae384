package domain

const (
	RoleUndefined Role = iota
	RoleBuffer
	RoleResolve
	RoleAdmin
)

type Role int

func (r Role) String() string {
	switch r {
	case RoleBuffer:
		return "BUFFER_ROLE"
	case RoleResolve:
		return "RESOLVE_ROLE"
	case RoleAdmin:
		return "ADMIN_ROLE"
	default:
		return "UNDEFINED_ROLE"
	}
}

func RoleFromString(s string) Role {
	switch s {
	case "BUFFER_ROLE":
		return RoleBuffer
	case "RESOLVE_ROLE":
		return RoleResolve
	case "ADMIN_ROLE":
		return RoleAdmin
	default:
		return RoleUndefined
	}
}

const (
	CapOwner Capability = iota
	CapEmergencyPause
	CapEmergencyUnpause
	CapBuffer
	CapResolve
	CapAdmin
)

// Capability is what an operation requires, as opposed to what a caller
// holds. The mapping between the two lives entirely in Authorize.
type Capability int

type RoleGranted struct {
	Role    string
	Account string
	Sender  string
}

type RoleRevoked struct {
	Role    string
	Account string
	Sender  string
}

type OwnershipTransferred struct {
	PreviousOwner string
	NewOwner      string
}

type EmergencyAdminChanged struct {
	PreviousAdmin string
	NewAdmin      string
}

// AccessRegistry is the singleton role registry. The deployer becomes owner
// and emergency admin and holds ADMIN_ROLE; BUFFER_ROLE and RESOLVE_ROLE
// are granted explicitly.
type AccessRegistry struct {
	Owner          string
	EmergencyAdmin string
	Grants         map[Role]map[string]bool
}

func NewAccessRegistry(deployer string) *AccessRegistry {
	grants := make(map[Role]map[string]bool)
	for _, role := range []Role{RoleBuffer, RoleResolve, RoleAdmin} {
		grants[role] = make(map[string]bool)
	}
	grants[RoleAdmin][deployer] = true

	return &AccessRegistry{
		Owner:          deployer,
		EmergencyAdmin: deployer,
		Grants:         grants,
	}
}

func (a *AccessRegistry) HasRole(role Role, account string) bool {
	accounts, ok := a.Grants[role]
	if !ok {
		return false
	}
	return accounts[account]
}

// Authorize is the single authorization policy for every mutating
// operation. Pause is deliberately broader than unpause: a compromised
// emergency-admin key can halt the system but cannot resume it.
func (a *AccessRegistry) Authorize(caller string, capability Capability) error {
	switch capability {
	case CapOwner, CapEmergencyUnpause:
		if caller != a.Owner {
			return NewUnauthorizedError("%s is not the owner", caller)
		}
	case CapEmergencyPause:
		if caller != a.Owner && caller != a.EmergencyAdmin {
			return NewUnauthorizedError(
				"%s is neither the owner nor the emergency admin", caller,
			)
		}
	case CapBuffer:
		if !a.HasRole(RoleBuffer, caller) {
			return NewUnauthorizedError("%s lacks BUFFER_ROLE", caller)
		}
	case CapResolve:
		if !a.HasRole(RoleResolve, caller) {
			return NewUnauthorizedError("%s lacks RESOLVE_ROLE", caller)
		}
	case CapAdmin:
		if !a.HasRole(RoleAdmin, caller) {
			return NewUnauthorizedError("%s lacks ADMIN_ROLE", caller)
		}
	default:
		return NewUnauthorizedError("unknown capability")
	}
	return nil
}

func (a *AccessRegistry) GrantRole(sender string, role Role, account string) (Event, error) {
	if err := a.Authorize(sender, CapOwner); err != nil {
		return nil, err
	}
	if role == RoleUndefined {
		return nil, NewValidationError("unknown role")
	}
	if len(account) <= 0 {
		return nil, NewValidationError("cannot grant a role to the zero address")
	}
	if a.Grants[role] == nil {
		a.Grants[role] = make(map[string]bool)
	}
	a.Grants[role][account] = true

	return RoleGranted{Role: role.String(), Account: account, Sender: sender}, nil
}

func (a *AccessRegistry) RevokeRole(sender string, role Role, account string) (Event, error) {
	if err := a.Authorize(sender, CapOwner); err != nil {
		return nil, err
	}
	if role == RoleUndefined {
		return nil, NewValidationError("unknown role")
	}
	delete(a.Grants[role], account)

	return RoleRevoked{Role: role.String(), Account: account, Sender: sender}, nil
}

func (a *AccessRegistry) TransferOwnership(sender, newOwner string) (Event, error) {
	if err := a.Authorize(sender, CapOwner); err != nil {
		return nil, err
	}
	if len(newOwner) <= 0 {
		return nil, NewValidationError("cannot transfer ownership to the zero address")
	}
	previous := a.Owner
	a.Owner = newOwner

	return OwnershipTransferred{PreviousOwner: previous, NewOwner: newOwner}, nil
}

func (a *AccessRegistry) SetEmergencyAdmin(sender, admin string) (Event, error) {
	if err := a.Authorize(sender, CapOwner); err != nil {
		return nil, err
	}
	if len(admin) <= 0 {
		return nil, NewValidationError("cannot set the zero address as emergency admin")
	}
	previous := a.EmergencyAdmin
	a.EmergencyAdmin = admin

	return EmergencyAdminChanged{PreviousAdmin: previous, NewAdmin: admin}, nil
}
