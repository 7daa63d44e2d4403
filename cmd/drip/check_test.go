package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xdrip/internal/markup"
)

// fakeTab lands on a fixed location whatever is opened
type fakeTab struct {
	landing  string
	timeline bool
	navErr   error

	opened []string
	waited []markup.Role
}

func (f *fakeTab) Navigate(_ context.Context, url string) error {
	f.opened = append(f.opened, url)
	return f.navErr
}

func (f *fakeTab) Location(context.Context) (string, error) {
	if len(f.opened) == 0 {
		return "about:blank", nil
	}
	return f.landing, nil
}

func (f *fakeTab) WaitFor(_ context.Context, role markup.Role) (bool, error) {
	f.waited = append(f.waited, role)
	return f.timeline, nil
}

func TestCheckSession(t *testing.T) {
	t.Parallel()

	hosts := []string{"twitter.com", "x.com"}
	tests := []struct {
		name       string
		tab        fakeTab
		wantReady  bool
		wantOnSite bool
		wantWait   bool
	}{
		{
			name:       "logged in",
			tab:        fakeTab{landing: "https://x.com/home", timeline: true},
			wantReady:  true,
			wantOnSite: true,
			wantWait:   true,
		},
		{
			name:       "redirected to login flow",
			tab:        fakeTab{landing: "https://x.com/i/flow/login?redirect_after_login=%2F", timeline: true},
			wantOnSite: true,
		},
		{
			name:       "landing page without timeline",
			tab:        fakeTab{landing: "https://x.com/"},
			wantOnSite: true,
			wantWait:   true,
		},
		{
			name: "off site",
			tab:  fakeTab{landing: "https://accounts.example.com/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tab := tt.tab
			r, err := checkSession(context.Background(), &tab, "https://twitter.com", hosts)
			require.NoError(t, err)

			// the owned tab starts blank, so the check must open the site itself
			assert.Equal(t, []string{"https://twitter.com"}, tab.opened)
			assert.Equal(t, tt.wantReady, r.Ready())
			assert.Equal(t, tt.wantOnSite, r.OnSite)
			assert.Equal(t, tt.wantWait, len(tab.waited) == 1)
		})
	}
}

func TestCheckSessionNavigationError(t *testing.T) {
	t.Parallel()

	errNav := errors.New("net::ERR_CONNECTION_REFUSED")
	_, err := checkSession(context.Background(), &fakeTab{navErr: errNav}, "https://twitter.com", []string{"twitter.com"})
	assert.ErrorIs(t, err, errNav)
}
