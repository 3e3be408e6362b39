package auth_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var _ = Describe("TokenManager", func() {
	It("round-trips the principal", func() {
		tm := auth.NewTokenManager("secret", 5)
		token, expires, err := tm.GenerateToken(domain.Principal{StaffID: "s1", TenantID: "t1", Role: domain.StaffRoleAdmin})
		Expect(err).NotTo(HaveOccurred())
		Expect(expires).NotTo(BeZero())

		claims, err := tm.ParseToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Principal()).To(Equal(domain.Principal{StaffID: "s1", TenantID: "t1", Role: domain.StaffRoleAdmin}))
	})

	It("rejects tokens signed with another secret", func() {
		token, _, err := auth.NewTokenManager("other", 5).GenerateToken(domain.Principal{StaffID: "s1", TenantID: "t1"})
		Expect(err).NotTo(HaveOccurred())
		_, err = auth.NewTokenManager("secret", 5).ParseToken(token)
		Expect(err).To(HaveOccurred())
	})

	It("refuses to issue tokens without a tenant", func() {
		_, _, err := auth.NewTokenManager("secret", 5).GenerateToken(domain.Principal{StaffID: "s1"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("AuthMiddleware", func() {
	var (
		app *fiber.App
		tm  *auth.TokenManager
	)

	BeforeEach(func() {
		tm = auth.NewTokenManager("secret", 5)
		app = fiber.New()
		app.Get("/agents", auth.NewAuthMiddleware(tm).Handle, auth.RequireStaffRole(), func(c *fiber.Ctx) error {
			p, _ := auth.PrincipalFromContext(c)
			return c.SendString(p.TenantID)
		})
		app.Get("/admins", auth.NewAuthMiddleware(tm).Handle, auth.RequireStaffRole(domain.StaffRoleAdmin), func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusNoContent)
		})
	})

	request := func(path, role string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if role != "" {
			token, _, err := tm.GenerateToken(domain.Principal{StaffID: "s1", TenantID: "t1", Role: domain.StaffRole(role)})
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("stores the principal for handlers", func() {
		Expect(request("/agents", "AGENT").StatusCode).To(Equal(http.StatusOK))
	})

	It("rejects missing tokens", func() {
		Expect(request("/agents", "").StatusCode).NotTo(Equal(http.StatusOK))
	})

	It("enforces roles", func() {
		Expect(request("/admins", "AGENT").StatusCode).To(Equal(http.StatusForbidden))
		Expect(request("/admins", "ADMIN").StatusCode).To(Equal(http.StatusNoContent))
	})
})
