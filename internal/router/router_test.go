package router

import (
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBuildAdminPermissionCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	noop := func(c *gin.Context) {}
	r.GET("/api/v1/menu/categories", noop)
	r.GET("/api/v1/admin/orders", noop)
	r.POST("/api/v1/admin/orders/:id/accept", noop)
	r.GET("/api/v1/admin/dashboard", noop)

	items := buildAdminPermissionCatalog(r)
	if len(items) != 3 {
		t.Fatalf("want 3 admin permissions got %d: %+v", len(items), items)
	}
	if items[0].Module != "dashboard" || items[0].Permission != "GET:/admin/dashboard" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	for _, item := range items[1:] {
		if item.Module != "orders" {
			t.Fatalf("unexpected module: %+v", item)
		}
	}
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"":                  "system",
		"/admin":            "admin",
		"/admin/orders/:id": "orders",
		"/admin/authz/me":   "authz",
		"/menu/products":    "menu",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("object %q want %q got %q", object, want, got)
		}
	}
}
