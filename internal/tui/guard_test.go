package tui

import (
	"testing"

	"github.com/okellen/appointed/internal/session"
)

func TestRouteFor(t *testing.T) {
	signedOut, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	signedIn, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	signedIn.Set(session.Credential{Token: "tok", Kind: "bearer"})

	cases := []struct {
		name      string
		requested screen
		sessions  *session.Store
		want      screen
	}{
		{"dashboard without credential bounces to sign-in", screenDashboard, signedOut, screenSignIn},
		{"dashboard with credential passes", screenDashboard, signedIn, screenDashboard},
		{"landing without credential passes", screenLanding, signedOut, screenLanding},
		{"landing with credential bounces to dashboard", screenLanding, signedIn, screenDashboard},
		{"sign-in with credential bounces to dashboard", screenSignIn, signedIn, screenDashboard},
		{"sign-up with credential bounces to dashboard", screenSignUp, signedIn, screenDashboard},
		{"sign-in without credential passes", screenSignIn, signedOut, screenSignIn},
	}
	for _, tc := range cases {
		if got := routeFor(tc.requested, tc.sessions); got != tc.want {
			t.Fatalf("%s: routeFor(%s) = %s, want %s", tc.name, tc.requested, got, tc.want)
		}
	}
}
