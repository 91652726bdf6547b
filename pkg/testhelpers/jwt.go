// Package testhelpers provides utilities for testing grafeo components.
package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// GenerateTestJWT creates a test JWT token for use when verification is disabled.
// The token has a valid structure but no signature (alg: none).
// Organizations are carried in the "orgs" claim used for RoleBased access.
func GenerateTestJWT(sub string, organizations ...string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	claims := map[string]any{"sub": sub, "aud": "grafeo"}
	if len(organizations) > 0 {
		claims["orgs"] = organizations
	}
	payload, _ := json.Marshal(claims)

	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}

// GenerateTestJWTWithBearer returns token with "Bearer " prefix for Authorization header.
func GenerateTestJWTWithBearer(sub string, organizations ...string) string {
	return "Bearer " + GenerateTestJWT(sub, organizations...)
}
