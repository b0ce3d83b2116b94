package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	CredentialPayloadFormatJSONV1 = "provider_token_json"
	CredentialPayloadVersionV1    = 1
)

// JSONCredentialCodec serializes exchanged token material as JSON
// before it is handed to the cipher and stored.
type JSONCredentialCodec struct{}

func (JSONCredentialCodec) Format() string {
	return CredentialPayloadFormatJSONV1
}

func (JSONCredentialCodec) Version() int {
	return CredentialPayloadVersionV1
}

type jsonTokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	GrantedScope string `json:"granted_scope,omitempty"`
}

func (JSONCredentialCodec) Encode(token ProviderToken) ([]byte, error) {
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("core: access token is required to encode a credential payload")
	}
	payload := jsonTokenPayload{
		AccessToken:  strings.TrimSpace(token.AccessToken),
		RefreshToken: strings.TrimSpace(token.RefreshToken),
		TokenType:    strings.TrimSpace(token.TokenType),
		ExpiresIn:    token.ExpiresIn,
		GrantedScope: strings.TrimSpace(token.GrantedScope),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("core: encode credential payload: %w", err)
	}
	return encoded, nil
}

func (JSONCredentialCodec) Decode(payload []byte) (ProviderToken, error) {
	if len(payload) == 0 {
		return ProviderToken{}, fmt.Errorf("core: credential payload is empty")
	}
	decoded := jsonTokenPayload{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return ProviderToken{}, fmt.Errorf("core: decode credential payload: %w", err)
	}
	return ProviderToken{
		AccessToken:  strings.TrimSpace(decoded.AccessToken),
		RefreshToken: strings.TrimSpace(decoded.RefreshToken),
		TokenType:    strings.TrimSpace(decoded.TokenType),
		ExpiresIn:    decoded.ExpiresIn,
		GrantedScope: strings.TrimSpace(decoded.GrantedScope),
	}, nil
}
