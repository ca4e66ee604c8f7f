package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		baseURL   string
		token     string
		hasToken  bool
		expectErr bool
	}{
		{name: "token present", url: "http://localhost:8000/demo?token=abc123", baseURL: "http://localhost:8000", token: "abc123", hasToken: true},
		{name: "no token", url: "https://chat.example.com/demo", baseURL: "https://chat.example.com"},
		{name: "empty token", url: "https://chat.example.com/demo?token=", baseURL: "https://chat.example.com"},
		{name: "first value wins", url: "http://h/?token=a&token=b", baseURL: "http://h", token: "a", hasToken: true},
		{name: "relative", url: "/demo?token=x", expectErr: true},
		{name: "empty", url: "  ", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := FromURL(tt.url)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.baseURL, ctx.BaseURL)
			require.Equal(t, tt.token, ctx.Token.Value())
			require.Equal(t, tt.hasToken, ctx.Token.Present())
		})
	}
}

func TestContextWithBaseURL(t *testing.T) {
	ctx, err := FromURL("http://localhost:8000/demo?token=abc")
	require.NoError(t, err)

	require.Equal(t, ctx, ctx.WithBaseURL(""))

	other := ctx.WithBaseURL("http://backend:9000/")
	require.Equal(t, "http://backend:9000", other.BaseURL)
	require.Equal(t, "abc", other.Token.Value())
}

func TestTokenRedacted(t *testing.T) {
	require.Equal(t, "", Token{}.Redacted())
	require.Equal(t, "…", NewToken("abc").Redacted())
	require.Equal(t, "abcd…", NewToken("abcdefgh").Redacted())
}
