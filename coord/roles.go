package coord

import (
	"sync"

	"github.com/tesseract-protocol/tesseract/core/types"
	"github.com/tesseract-protocol/tesseract/crypto"
)

// Capability identifiers, derived the same way the on-chain contract
// derives them.
var (
	RoleBuffer  = crypto.RoleHash("BUFFER_ROLE")
	RoleResolve = crypto.RoleHash("RESOLVE_ROLE")
	RoleAdmin   = crypto.RoleHash("ADMIN_ROLE")
)

// RoleRegistry maps capabilities to grantee identities. A single owner
// controls all grants; there is no hierarchy and no timelock on
// ownership transfer. The owner implicitly holds every capability.
type RoleRegistry struct {
	mu             sync.RWMutex
	owner          types.Address
	emergencyAdmin types.Address
	grants         map[types.Hash]map[types.Address]bool
}

// NewRoleRegistry creates a registry owned by owner. The owner is also
// the initial emergency admin.
func NewRoleRegistry(owner types.Address) *RoleRegistry {
	return &RoleRegistry{
		owner:          owner,
		emergencyAdmin: owner,
		grants:         make(map[types.Hash]map[types.Address]bool),
	}
}

// Owner returns the current owner.
func (r *RoleRegistry) Owner() types.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// EmergencyAdmin returns the current emergency admin.
func (r *RoleRegistry) EmergencyAdmin() types.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.emergencyAdmin
}

// IsOwner reports whether account is the owner.
func (r *RoleRegistry) IsOwner(account types.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return account == r.owner
}

// HasRole reports whether account has been granted role. The owner
// holds every role implicitly.
func (r *RoleRegistry) HasRole(role types.Hash, account types.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if account == r.owner {
		return true
	}
	return r.grants[role][account]
}

// Authorize returns nil when caller holds role, ErrUnauthorized
// otherwise.
func (r *RoleRegistry) Authorize(role types.Hash, caller types.Address) error {
	if !r.HasRole(role, caller) {
		return ErrUnauthorized
	}
	return nil
}

// Grant gives role to grantee. Only the owner may grant.
func (r *RoleRegistry) Grant(caller types.Address, role types.Hash, grantee types.Address) error {
	if grantee.IsZero() {
		return ErrZeroAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrUnauthorized
	}
	if r.grants[role] == nil {
		r.grants[role] = make(map[types.Address]bool)
	}
	r.grants[role][grantee] = true
	return nil
}

// Revoke removes role from grantee. Only the owner may revoke.
func (r *RoleRegistry) Revoke(caller types.Address, role types.Hash, grantee types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrUnauthorized
	}
	delete(r.grants[role], grantee)
	return nil
}

// TransferOwnership reassigns the owner outright in a single call.
// The zero address is rejected.
func (r *RoleRegistry) TransferOwnership(caller, newOwner types.Address) error {
	if newOwner.IsZero() {
		return ErrZeroAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrUnauthorized
	}
	r.owner = newOwner
	return nil
}

// SetEmergencyAdmin designates an address that may pause, but not
// unpause, the engine. Only the owner may set it; zero is rejected.
func (r *RoleRegistry) SetEmergencyAdmin(caller, admin types.Address) error {
	if admin.IsZero() {
		return ErrZeroAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrUnauthorized
	}
	r.emergencyAdmin = admin
	return nil
}

// CanPause reports whether account may pause the engine: the owner or
// the emergency admin.
func (r *RoleRegistry) CanPause(account types.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return account == r.owner || account == r.emergencyAdmin
}
