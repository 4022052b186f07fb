package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/v1/projects/01ARZ3NDEKTSV":        "/v1/projects/:id",
		"/v1/projects":                      "/v1/projects",
		"/v1/audit/resources/PROJECT/p1":    "/v1/audit/resources/:type/:id",
		"/v1/credits/balance":               "/v1/credits/balance",
		"/v1/credits/transactions?limit=10": "/v1/credits/transactions",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
