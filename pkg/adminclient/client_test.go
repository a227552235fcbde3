package adminclient

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:9091")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:9091", client.baseURL)
}

func TestWithToken(t *testing.T) {
	client := New("http://localhost:9091")
	tokenClient := client.WithToken("test-token")

	assert.Empty(t, client.token)
	assert.Equal(t, "test-token", tokenClient.token)
}

func TestHealthz(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		fmt.Fprint(w, `{"status":"ok","data":{"service":"ldapd"}}`)
	}))
	defer server.Close()

	client := New(server.URL)
	data, err := client.Healthz()
	require.NoError(t, err)
	assert.Equal(t, "ldapd", data["service"])
}

func TestMappingTreeSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"status":"ok","data":[{"suffix_dn":"dc=example,dc=com","state":"backend","backends":[{"name":"main","state":"on"}]}]}`)
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	nodes, err := client.MappingTree()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "dc=example,dc=com", nodes[0].SuffixDN)
	assert.Equal(t, "main", nodes[0].Backends[0].Name)
}

func TestGetReturnsAPIErrorOnFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"error","error":"missing bearer token"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.SyncSessions()
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsAuthError())
	assert.Equal(t, "missing bearer token", apiErr.Message)
}
