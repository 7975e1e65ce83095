package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceProfileWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("cashier", "/admin/orders/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetProfileRoles(1, []string{"cashier"}); err != nil {
		t.Fatalf("set profile roles failed: %v", err)
	}

	allow, err := svc.EnforceProfile(1, "/api/v1/admin/orders/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceProfile(1, "/api/v1/admin/orders/42/accept", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	policies, err := svc.GetRolePolicies("cashier")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Object != "/admin/orders/:id" || policies[0].Action != "GET" {
		t.Fatalf("unexpected policies: %+v", policies)
	}
}

func TestSetProfileRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("cashier", "/admin/orders", "GET"); err != nil {
		t.Fatalf("grant cashier policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("owner", "/admin/customers", "GET"); err != nil {
		t.Fatalf("grant owner policy failed: %v", err)
	}

	if err := svc.SetProfileRoles(2, []string{"cashier"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetProfileRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:cashier" {
		t.Fatalf("roles want [role:cashier], got=%v", roles)
	}

	if err := svc.SetProfileRoles(2, []string{"owner"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	allow, err := svc.EnforceProfile(2, "/admin/orders", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}
	allow, err = svc.EnforceProfile(2, "/admin/customers", "GET")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role permission granted")
	}
}

func TestEnsureDefaultRoleKeepsExplicitRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	if err := svc.EnsureDefaultRole(5, RoleManager); err != nil {
		t.Fatalf("ensure default role failed: %v", err)
	}
	roles, _ := svc.GetProfileRoles(5)
	if len(roles) != 1 || roles[0] != "role:manager" {
		t.Fatalf("want default manager role, got %v", roles)
	}

	if err := svc.SetProfileRoles(6, []string{RoleKitchen}); err != nil {
		t.Fatalf("set kitchen role failed: %v", err)
	}
	if err := svc.EnsureDefaultRole(6, RoleManager); err != nil {
		t.Fatalf("ensure default role failed: %v", err)
	}
	roles, _ = svc.GetProfileRoles(6)
	if len(roles) != 1 || roles[0] != "role:kitchen" {
		t.Fatalf("explicit role must be kept, got %v", roles)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "admin/orders", want: "/admin/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 重复执行保持幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:readonly": true,
		"role:kitchen":  true,
		"role:manager":  true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	if err := svc.SetProfileRoles(3, []string{RoleKitchen}); err != nil {
		t.Fatalf("set profile roles failed: %v", err)
	}
	allow, err := svc.EnforceProfile(3, "/admin/orders/9/advance", "POST")
	if err != nil || !allow {
		t.Fatalf("kitchen should advance orders: allow=%v err=%v", allow, err)
	}
	allow, err = svc.EnforceProfile(3, "/admin/customers", "GET")
	if err != nil {
		t.Fatalf("enforce customers failed: %v", err)
	}
	if allow {
		t.Fatalf("kitchen must not list customers")
	}

	if err := svc.SetProfileRoles(4, []string{RoleReadonly}); err != nil {
		t.Fatalf("set readonly role failed: %v", err)
	}
	allow, err = svc.EnforceProfile(4, "/admin/dashboard", "GET")
	if err != nil || !allow {
		t.Fatalf("readonly should read dashboard: allow=%v err=%v", allow, err)
	}
	allow, err = svc.EnforceProfile(4, "/admin/orders/9/accept", "POST")
	if err != nil {
		t.Fatalf("enforce readonly write failed: %v", err)
	}
	if allow {
		t.Fatalf("readonly must not accept orders")
	}
}
