package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orai-chat/errors"
)

var testSecret = []byte("test-secret")

func Test_Token_Round_Trip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("alice", "Alice", testSecret, time.Hour)
	req.NoError(err)

	identity, err := ValidateToken(token, testSecret)
	req.NoError(err)
	req.Equal("alice", identity.UserID)
	req.Equal("Alice", identity.Name)
}

func Test_Validate_Rejects_Bad_Tokens(t *testing.T) {
	req := require.New(t)

	_, err := ValidateToken("garbage", testSecret)
	req.ErrorIs(err, errors.ErrInvalidToken)

	// Wrong secret.
	token, err := GenerateToken("alice", "Alice", testSecret, time.Hour)
	req.NoError(err)
	_, err = ValidateToken(token, []byte("other-secret"))
	req.ErrorIs(err, errors.ErrInvalidToken)

	// Expired.
	expired, err := GenerateToken("alice", "Alice", testSecret, -time.Minute)
	req.NoError(err)
	_, err = ValidateToken(expired, testSecret)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func Test_Middleware_Injects_The_Identity(t *testing.T) {
	req := require.New(t)

	var got Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := FromContext(r.Context())
		req.True(ok)
		got = identity
	})
	handler := Middleware(testSecret)(next)

	token, err := GenerateToken("bob", "Bob", testSecret, time.Hour)
	req.NoError(err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("bob", got.UserID)
	req.Equal("Bob", got.Name)
}

func Test_Middleware_Rejects_Missing_Or_Invalid_Tokens(t *testing.T) {
	req := require.New(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Fail("the handler must not run without a valid token")
	})
	handler := Middleware(testSecret)(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)
}
