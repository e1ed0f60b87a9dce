package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebookapp/tastebook/internal/common"
)

func makeToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSignIn_ParsesCredentialFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := makeToken(t, "acc-1", exp)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auth/signin", r.URL.Path)

		var in struct {
			Provider string `json:"provider"`
			Token    string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "google", in.Provider)

		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	cred, err := c.SignIn(context.Background(), "google", "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", cred.AccountID)
	assert.Equal(t, token, cred.Token)
	assert.Equal(t, exp.Unix(), cred.ExpiresAt.Unix())
}

func TestSignUp_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"weak credential", http.StatusBadRequest, "weak_credential", common.ErrWeakCredential},
		{"invalid identifier", http.StatusBadRequest, "invalid_identifier", common.ErrInvalidIdentifier},
		{"identifier in use by code", http.StatusBadRequest, "identifier_in_use", common.ErrIdentifierInUse},
		{"identifier in use by conflict", http.StatusConflict, "", common.ErrIdentifierInUse},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"code": tt.code})
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL)
			_, err := c.SignUp(context.Background(), "a@example.com", []byte("secret"))
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestPost_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	err := c.RegisterClient(context.Background(), "acc-1", "client-1")
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
}

func TestPost_ServerErrorsMapToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.SyncData(context.Background(), 0)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
}

func TestPost_TransportErrorMapsToUnavailable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1") // nothing listens here
	err := c.RegisterClient(context.Background(), "acc-1", "client-1")
	assert.True(t, errors.Is(err, common.ErrUnavailable))
}

func TestSyncData_SendsBearerAndSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var in struct {
			SinceVersion int64 `json:"since_version"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, int64(41), in.SinceVersion)

		_ = json.NewEncoder(w).Encode(map[string]int64{"version": 42})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	c.SetToken("tok-1")

	version, err := c.SyncData(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, int64(42), version)
}

func TestCredentialFromToken_MissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Unix()})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = credentialFromToken(signed)
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestCredentialFromToken_Garbage(t *testing.T) {
	_, err := credentialFromToken("not-a-jwt")
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestSetToken_SafeWhileRequestsInFlight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int64{"version": 1})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)

	// The identity flow swaps the token while the sync loop keeps posting.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				c.SetToken(fmt.Sprintf("tok-%d-%d", n, j))
				_, err := c.SyncData(context.Background(), 0)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
}
