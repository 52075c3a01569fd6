package signup

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadEncodeIsCanonical(t *testing.T) {
	p := Payload{Email: "a@b.com", Name: "Alice", Expiry: 0, Tags: []string{"news"}}

	decoded, err := base64.RawURLEncoding.DecodeString(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, `"a@b.com","Alice","0","news"`, string(decoded))
}

func TestPayloadRoundTrip(t *testing.T) {
	cases := []Payload{
		{Email: "a@b.com", Name: "Alice", Expiry: 0, Tags: []string{"news", "offers"}},
		{Email: "a@b.com", Name: `Alice "Al" Smith, Esq.`, Expiry: 1700000000, Tags: nil},
		{Email: "a@b.com", Name: "", Expiry: 42, Tags: []string{"with,comma"}},
	}
	for _, want := range cases {
		got, err := DecodePayload(want.Encode())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodePayloadValidation(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"bad base64":        "!!!",
		"too few fields":    enc(`"a@b.com","Alice"`),
		"non-numeric expiry": enc(`"a@b.com","Alice","soon"`),
		"empty":             enc(""),
	}
	for name, encoded := range cases {
		_, err := DecodePayload(encoded)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
}

func TestDecodePayloadDropsBlankTags(t *testing.T) {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(`"a@b.com","Alice","0","news","","  "`))
	p, err := DecodePayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, p.Tags)
}

func TestDecodeRequest(t *testing.T) {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(`a@b.com,"Smith, Alice",news,offers`))
	req, err := DecodeRequest(encoded)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", req.Email)
	assert.Equal(t, "Smith, Alice", req.Name)
	assert.Equal(t, []string{"news", "offers"}, req.Tags)
}

func TestDecodeRequestAcceptsPaddedBase64(t *testing.T) {
	encoded := base64.URLEncoding.EncodeToString([]byte(`a@b.com,Alice`))
	req, err := DecodeRequest(encoded)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", req.Email)
}

func TestDecodeRequestValidation(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"bad base64":       "%%%",
		"one field":        enc("a@b.com"),
		"bad email":        enc("not-an-email,Alice"),
		"dotless domain":   enc("a@localhost,Alice"),
		"display name form": enc(`Alice <a@b.com>,Alice`),
	}
	for name, encoded := range cases {
		_, err := DecodeRequest(encoded)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
}
