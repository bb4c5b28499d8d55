package coord

import (
	"errors"
	"testing"

	"github.com/tesseract-protocol/tesseract/core/types"
)

var (
	ownerAddr   = types.Address{0x01}
	bufferAddr  = types.Address{0x02}
	resolveAddr = types.Address{0x03}
	otherAddr   = types.Address{0x04}
)

func TestOwnerHoldsAllRoles(t *testing.T) {
	r := NewRoleRegistry(ownerAddr)

	for _, role := range []types.Hash{RoleBuffer, RoleResolve, RoleAdmin} {
		if !r.HasRole(role, ownerAddr) {
			t.Errorf("owner missing role %s", role)
		}
	}
	if r.HasRole(RoleBuffer, otherAddr) {
		t.Error("ungranted account has buffer role")
	}
}

func TestGrantRevoke(t *testing.T) {
	r := NewRoleRegistry(ownerAddr)

	if err := r.Grant(ownerAddr, RoleBuffer, bufferAddr); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !r.HasRole(RoleBuffer, bufferAddr) {
		t.Fatal("grantee missing role after grant")
	}
	if r.HasRole(RoleResolve, bufferAddr) {
		t.Fatal("grantee holds role it was not granted")
	}

	if err := r.Revoke(ownerAddr, RoleBuffer, bufferAddr); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if r.HasRole(RoleBuffer, bufferAddr) {
		t.Fatal("grantee still holds role after revoke")
	}
}

func TestGrantRequiresOwner(t *testing.T) {
	r := NewRoleRegistry(ownerAddr)

	if err := r.Grant(otherAddr, RoleBuffer, bufferAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("grant by non-owner: got %v, want ErrUnauthorized", err)
	}
	if err := r.Grant(ownerAddr, RoleBuffer, types.Address{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("grant to zero address: got %v, want ErrZeroAddress", err)
	}
}

func TestTransferOwnership(t *testing.T) {
	r := NewRoleRegistry(ownerAddr)

	if err := r.TransferOwnership(ownerAddr, types.Address{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("transfer to zero: got %v, want ErrZeroAddress", err)
	}
	if err := r.TransferOwnership(otherAddr, otherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("transfer by non-owner: got %v, want ErrUnauthorized", err)
	}

	if err := r.TransferOwnership(ownerAddr, otherAddr); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if r.Owner() != otherAddr {
		t.Fatal("owner not updated")
	}
	// The previous owner loses its implicit capabilities.
	if r.HasRole(RoleAdmin, ownerAddr) {
		t.Fatal("previous owner still holds implicit admin role")
	}
	if !r.HasRole(RoleAdmin, otherAddr) {
		t.Fatal("new owner missing implicit admin role")
	}
}

func TestEmergencyAdmin(t *testing.T) {
	r := NewRoleRegistry(ownerAddr)

	// Owner is the initial emergency admin.
	if !r.CanPause(ownerAddr) {
		t.Fatal("owner cannot pause")
	}
	if r.CanPause(otherAddr) {
		t.Fatal("arbitrary account can pause")
	}

	if err := r.SetEmergencyAdmin(ownerAddr, otherAddr); err != nil {
		t.Fatalf("set emergency admin: %v", err)
	}
	if !r.CanPause(otherAddr) {
		t.Fatal("emergency admin cannot pause")
	}
	if err := r.SetEmergencyAdmin(ownerAddr, types.Address{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero emergency admin: got %v, want ErrZeroAddress", err)
	}
}
