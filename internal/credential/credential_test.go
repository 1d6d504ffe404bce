package credential

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_Lifecycle(t *testing.T) {
	s := NewStore("")
	_, ok := s.Token()
	assert.False(t, ok)

	var seen []string
	var mu sync.Mutex
	s.OnChange(func(token string) {
		mu.Lock()
		seen = append(seen, token)
		mu.Unlock()
	})

	s.Set("abc")
	token, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	s.Clear()
	_, ok = s.Token()
	assert.False(t, ok)
	assert.Equal(t, []string{"abc", ""}, seen)
}

func TestStore_OnChangeMayReadStore(t *testing.T) {
	s := NewStore("")
	done := make(chan string, 1)
	s.OnChange(func(string) {
		token, _ := s.Token()
		done <- token
	})
	s.Set("xyz")
	assert.Equal(t, "xyz", <-done)
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, jwt.MapClaims{"user_id": 42, "username": "ada", "exp": exp.Unix()})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.True(t, exp.Equal(claims.ExpiresAt))

	_, err = ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestStore_Expired(t *testing.T) {
	now := time.Now()

	expired := NewStore(signed(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}))
	assert.True(t, expired.Expired(now))

	fresh := NewStore(signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}))
	assert.False(t, fresh.Expired(now))

	noExp := NewStore(signed(t, jwt.MapClaims{"username": "ada"}))
	assert.False(t, noExp.Expired(now))

	opaque := NewStore("opaque-token")
	assert.False(t, opaque.Expired(now))

	_, err := NewStore("").Claims()
	assert.ErrorIs(t, err, ErrNoToken)
}
