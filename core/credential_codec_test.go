package core

import "testing"

func TestJSONCredentialCodecRoundTrip(t *testing.T) {
	codec := JSONCredentialCodec{}

	token := ProviderToken{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		GrantedScope: "read:org repo",
	}
	payload, err := codec.Encode(token)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != token {
		t.Fatalf("round trip = %+v, want %+v", decoded, token)
	}
}

func TestJSONCredentialCodecRejectsEmptyToken(t *testing.T) {
	codec := JSONCredentialCodec{}

	if _, err := codec.Encode(ProviderToken{}); err == nil {
		t.Fatalf("expected error for empty access token")
	}
	if _, err := codec.Decode(nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := codec.Decode([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
