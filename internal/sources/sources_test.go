package sources

import (
	"testing"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://status.example.com", "https://status.example.com"},
		{"https://status.example.com/", "https://status.example.com"},
		{"https://status.example.com/history?page=3", "https://status.example.com"},
		{"http://localhost:8080/x", "http://localhost:8080"},
		{"  https://status.example.com  ", "https://status.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeBaseURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "status.example.com", "ftp://status.example.com", "https://", "://bad"} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizeBaseURL(in)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "status.example.com", Host("https://status.example.com/history"))
	assert.Equal(t, "not a url", Host("not a url"))
}

func TestDedupByID(t *testing.T) {
	in := []domain.Incident{
		{ID: "a", Name: "first a"},
		{ID: "b"},
		{ID: "a", Name: "second a"},
		{ID: "c"},
		{ID: "b"},
	}

	got := DedupByID(in)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "first a", got[0].Name)
	assert.Equal(t, got, DedupByID(got))
}

func TestMinimalStatusPage(t *testing.T) {
	page := MinimalStatusPage("https://status.example.com", "Unknown")
	assert.False(t, page.HasAPI)
	assert.Equal(t, "Unknown", page.CompanyName)
	assert.NotNil(t, page.Components)
}
