package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionSession(t *testing.T) {
	s := &ConnectionSettings{URL: "https://chat.example.com/app/?token=abc123"}
	sc, err := s.Session()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", sc.BaseURL)
	assert.Equal(t, "abc123", sc.Token.Value())

	s.BaseURL = "http://localhost:8000/"
	sc, err = s.Session()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", sc.BaseURL)
	assert.Equal(t, "abc123", sc.Token.Value())
}

func TestConnectionRequiresURL(t *testing.T) {
	_, err := (&ConnectionSettings{}).Session()
	require.Error(t, err)

	sc, err := (&ConnectionSettings{BaseURL: "http://localhost:8000/"}).Session()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", sc.BaseURL)
	assert.False(t, sc.Token.Present())

	_, _, err = (&ConnectionSettings{URL: "https://x.example.com", Timeout: "soon"}).Client()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestConnectionClient(t *testing.T) {
	c, sc, err := (&ConnectionSettings{URL: "https://x.example.com/?token=t", Timeout: "5s"}).Client()
	require.NoError(t, err)
	assert.Equal(t, "https://x.example.com", c.BaseURL())
	assert.True(t, sc.Token.Present())
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Duration
		wantErr bool
	}{
		{value: "", want: time.Minute},
		{value: "250ms", want: 250 * time.Millisecond},
		{value: "0s", want: 0},
		{value: "-1s", wantErr: true},
		{value: "later", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseDuration("x", tt.value, time.Minute)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimerOptions(t *testing.T) {
	opts, err := (&TimerSettings{WelcomeDelay: "10ms", HealthInterval: "1m"}).Options()
	require.NoError(t, err)
	assert.Len(t, opts, 4)

	_, err = (&TimerSettings{HealthInterval: "0s"}).Options()
	require.Error(t, err)

	_, err = (&TimerSettings{PostAskDelay: "abc"}).Options()
	require.Error(t, err)
}

func TestSections(t *testing.T) {
	sections, err := Sections()
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, ConnectionSlug, sections[0].GetSlug())
	assert.Equal(t, TimersSlug, sections[1].GetSlug())
}
