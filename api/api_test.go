package api_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Akechi360/clinic-ops/api"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("OpenAPISpec", func() {
	It("is embedded in the binary", func() {
		Expect(api.OpenAPISpec).NotTo(BeEmpty())
		Expect(string(api.OpenAPISpec)).To(HavePrefix("openapi: 3"))
	})

	It("documents every mounted route group", func() {
		doc := string(api.OpenAPISpec)
		for _, path := range []string{
			"/auth/login", "/tickets", "/approvals",
			"/inventory", "/maintenance", "/users",
		} {
			Expect(doc).To(ContainSubstring(path))
		}
	})
})
