package handler

import (
	"os"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/value"
)

// resolveAPIKey implements the shared credential-resolution helper (spec
// §4.7): a node.Config.credentialId resolves to a stored Credential whose
// data.api_key is used; absent that, envVar is consulted. Missing both is a
// CredentialError.
func resolveAPIKey(ectx EngineContext, cfg value.Value, envVar string) (string, error) {
	if credID, ok := configString(cfg, "credentialId"); ok && ectx.Capabilities.Store != nil {
		cred, err := ectx.Capabilities.Store.GetCredential(ectx.Context(), credID)
		if err == nil && cred != nil {
			if apiKey, ok := cred.Data.Get("api_key"); ok && apiKey.IsString() && apiKey.Str() != "" {
				return apiKey.Str(), nil
			}
		}
	}

	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}

	return "", engineerr.Credential("no credential or " + envVar + " environment variable found")
}
