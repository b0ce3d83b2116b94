package github

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goliatone/go-authflow/core"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestGitHub(t *testing.T, doer doerFunc) *Client {
	t.Helper()
	client, err := New(Config{
		ClientID:            "id",
		ClientSecret:        "secret",
		InstallationAppName: "authflow-app",
		HTTPClient:          doer,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestGitHubListResources(t *testing.T) {
	client := newTestGitHub(t, func(req *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(req.URL.Path, "/user/orgs") {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(`[
			{"login": "acme", "html_url": "https://github.com/acme"},
			{"login": "umbrella"}
		]`), nil
	})

	resources, err := client.ListResources(context.Background(), core.ProviderToken{AccessToken: "t"})
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("resources = %d, want 2", len(resources))
	}
	if resources[0].ID != "acme" || resources[0].URL != "https://github.com/acme" {
		t.Fatalf("resources[0] = %+v", resources[0])
	}
	if resources[1].URL != "https://github.com/umbrella" {
		t.Fatalf("missing html_url not defaulted: %+v", resources[1])
	}
}

func TestGitHubIdentity(t *testing.T) {
	client := newTestGitHub(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"id": 583231, "login": "octocat", "name": "Octo Cat", "email": "octo@example.com"}`), nil
	})

	profile, err := client.Identity(context.Background(), "t")
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if profile.ID != "583231" || profile.Handle != "octocat" || profile.DisplayName != "Octo Cat" {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestGitHubVerifiedEmailPrefersPrimary(t *testing.T) {
	client := newTestGitHub(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`[
			{"email": "unverified@example.com", "primary": false, "verified": false},
			{"email": "secondary@example.com", "primary": false, "verified": true},
			{"email": "primary@example.com", "primary": true, "verified": true}
		]`), nil
	})

	email, err := client.VerifiedEmail(context.Background(), "t")
	if err != nil {
		t.Fatalf("VerifiedEmail: %v", err)
	}
	if email != "primary@example.com" {
		t.Fatalf("email = %q", email)
	}
}

func TestGitHubVerifiedEmailFallsBackToAnyVerified(t *testing.T) {
	client := newTestGitHub(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`[
			{"email": "only@example.com", "primary": false, "verified": true}
		]`), nil
	})

	email, err := client.VerifiedEmail(context.Background(), "t")
	if err != nil {
		t.Fatalf("VerifiedEmail: %v", err)
	}
	if email != "only@example.com" {
		t.Fatalf("email = %q", email)
	}
}

func TestGitHubInstallationURL(t *testing.T) {
	client := newTestGitHub(t, nil)
	if got := client.InstallationURL(); got != "https://github.com/apps/authflow-app/installations/new" {
		t.Fatalf("installation url = %q", got)
	}

	plain, err := New(Config{ClientID: "id"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if plain.InstallationURL() != "" {
		t.Fatalf("installation url without app name should be empty")
	}
}
