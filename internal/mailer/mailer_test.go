package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var got transmission
	var gotAuth, gotMessageID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMessageID = r.Header.Get("X-Message-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", 5*time.Second)
	status, err := c.Send(context.Background(), Message{
		To:       "alice@example.com",
		ToName:   "Alice",
		From:     "list@example.org",
		FromName: "The List",
		Subject:  "Confirm your subscription",
		Text:     "click the link",
		HTML:     "<a>click</a>",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.NotEmpty(t, gotMessageID)
	assert.Equal(t, "alice@example.com", got.To[0].Email)
	assert.Equal(t, "Alice", got.To[0].Name)
	assert.Equal(t, "list@example.org", got.From.Email)
	assert.Equal(t, "Confirm your subscription", got.Subject)
}

func TestClientRelaysNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	status, err := c.Send(context.Background(), Message{To: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "k", time.Second)
	status, err := c.Send(context.Background(), Message{To: "a@b.com"})
	assert.Error(t, err)
	assert.Equal(t, 0, status)
}

func TestTemplatesRender(t *testing.T) {
	tpl, err := NewTemplates(
		"{{ from_name }} signup",
		"Hi {{ name }}, confirm at {{ link }}. From {{ from_email }}",
		"<p>Hi {{ name }}</p><a href=\"{{ link }}\">confirm</a>",
	)
	require.NoError(t, err)

	subject, text, html, err := tpl.Render("https://lists.example.org?v=tok", "Alice", "The List", "list@example.org")
	require.NoError(t, err)
	assert.Equal(t, "The List signup", subject)
	assert.Equal(t, "Hi Alice, confirm at https://lists.example.org?v=tok. From list@example.org", text)
	assert.Contains(t, html, `href="https://lists.example.org?v=tok"`)
}

func TestTemplatesParseErrorAtConstruction(t *testing.T) {
	_, err := NewTemplates("{% if %}", "x", "y")
	assert.Error(t, err)
}
