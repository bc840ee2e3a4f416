package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghaggin/smartsplit/internal/config"
	"github.com/ghaggin/smartsplit/internal/membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loggedIn bool

func (l loggedIn) LoggedIn() bool { return bool(l) }

func newViewState(t *testing.T) *ViewState {
	s, err := NewViewState(&config.Config{Bridge: config.Bridge{SessionLifetime: time.Minute}})
	require.NoError(t, err)
	return s
}

func Test_requireAuth(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	req, err := http.NewRequest("GET", "/", nil)
	require.Nil(err)

	responseRecorder := httptest.NewRecorder()

	calledNext := false
	testHandler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calledNext = true
	})

	RequireAuth(loggedIn(false))(testHandler).ServeHTTP(responseRecorder, req)
	assert.False(calledNext)
	assert.Equal(http.StatusUnauthorized, responseRecorder.Code)

	responseRecorder = httptest.NewRecorder()
	RequireAuth(loggedIn(true))(testHandler).ServeHTTP(responseRecorder, req)
	assert.True(calledNext)
	assert.Equal(http.StatusOK, responseRecorder.Code)
}

func Test_pendingSurvivesRequests(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := newViewState(t)

	var got []string
	mux := http.NewServeMux()
	mux.HandleFunc("/put", func(_ http.ResponseWriter, r *http.Request) {
		s.SetPending(r.Context(), 9, membership.NewRequest("a@x.com", "b@x.com"))
	})
	mux.HandleFunc("/get", func(_ http.ResponseWriter, r *http.Request) {
		got = s.Pending(r.Context(), 9).Targets()
	})
	mux.HandleFunc("/other", func(_ http.ResponseWriter, r *http.Request) {
		got = s.Pending(r.Context(), 10).Targets()
	})
	handler := s.Wrap(mux)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/put", nil))
	cookies := rr.Result().Cookies()
	require.NotEmpty(cookies)

	r := httptest.NewRequest("GET", "/get", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal([]string{"a@x.com", "b@x.com"}, got)

	r = httptest.NewRequest("GET", "/other", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), r)
	assert.Empty(got)
}
