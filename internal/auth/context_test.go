package auth

import (
	"context"
	"testing"

	"github.com/finjaanapp/finjaan/internal/model"
)

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected no auth context on bare context")
	}
	if EmployeeID(context.Background()) != 0 {
		t.Error("expected zero employee id on bare context")
	}
	if IsAdmin(context.Background()) {
		t.Error("expected IsAdmin false on bare context")
	}
}

func TestWithAuthRoundTrip(t *testing.T) {
	branchID := int64(2)
	ac := AuthContext{
		EmployeeID: 7,
		Role:       model.RoleCashier,
		BranchID:   &branchID,
		SessionID:  99,
	}

	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context to be present")
	}
	if got.EmployeeID != 7 || got.SessionID != 99 {
		t.Errorf("got %+v, want employee 7 session 99", got)
	}
	if got.Role != model.RoleCashier {
		t.Errorf("role = %q, want cashier", got.Role)
	}
	if IsAdmin(ctx) {
		t.Error("cashier should not be admin")
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{EmployeeID: 1, Role: model.RoleAdmin})
	if !IsAdmin(ctx) {
		t.Error("expected admin role to report IsAdmin")
	}
}
