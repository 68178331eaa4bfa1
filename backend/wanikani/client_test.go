package wanikani

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevels(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, ParseLevels("3, 1,2,2"))
	assert.Equal(t, []int{60}, ParseLevels("0,61,60,-1,abc,"))
	assert.Empty(t, ParseLevels(""))
}

func newServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "wk-token", 0)
}

func TestUser(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer wk-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"data":{"username":"koichi","level":7,"profile_url":"https://www.wanikani.com/users/koichi"}}`)
	})

	u, err := c.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, User{Username: "koichi", Level: 7, ProfileURL: "https://www.wanikani.com/users/koichi"}, u)
}

func TestUpstreamStatus(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"Unauthorized","code":401}`)
	})

	_, err := c.User(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "user", se.Op)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Contains(t, se.Body, "Unauthorized")
}

func TestKanjiCount(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subjects", r.URL.Path)
		assert.Equal(t, "kanji", r.URL.Query().Get("types"))
		assert.Equal(t, "1,2", r.URL.Query().Get("levels"))
		fmt.Fprint(w, `{"total_count":61,"data":[]}`)
	})

	n, err := c.KanjiCount(context.Background(), []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 61, n)

	n, err = c.KanjiCount(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnlockedKanji(t *testing.T) {
	var srvURL string
	srv, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case r.URL.Path == "/assignments" && q.Get("page_after_id") == "":
			assert.Equal(t, "kanji", q.Get("subject_types"))
			assert.Equal(t, "true", q.Get("unlocked"))
			fmt.Fprintf(w, `{"data":[{"data":{"subject_id":440}},{"data":{"subject_id":441}}],
				"pages":{"next_url":"%s/assignments?page_after_id=2"}}`, srvURL)
		case r.URL.Path == "/assignments":
			fmt.Fprint(w, `{"data":[{"data":{"subject_id":442}}],"pages":{"next_url":null}}`)
		case r.URL.Path == "/subjects":
			assert.Equal(t, "440,441,442", q.Get("ids"))
			fmt.Fprint(w, `{"data":[
				{"id":440,"data":{"level":1,"characters":"一","meanings":[{"meaning":"One","accepted_answer":true},{"meaning":"Uno","accepted_answer":false}]}},
				{"id":441,"data":{"level":1,"characters":"","meanings":[{"meaning":"Blank","accepted_answer":true}]}},
				{"id":442,"data":{"level":1,"characters":"二","meanings":[{"meaning":"Two","accepted_answer":false}]}}
			],"pages":{"next_url":null}}`)
		default:
			http.NotFound(w, r)
		}
	})
	srvURL = srv.URL

	items, err := c.UnlockedKanji(context.Background(), []int{1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, KanjiItem{SubjectID: 440, Level: 1, Characters: "一", AcceptedMeanings: []string{"One"}}, items[0])
}

func TestUnlockedKanjiNoAssignments(t *testing.T) {
	calls := 0
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"data":[],"pages":{"next_url":null}}`)
	})

	items, err := c.UnlockedKanji(context.Background(), []int{3})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, calls, "subjects are not fetched without assignments")
}

func TestUnlockedKanjiSubjectsError(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/subjects" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data":[{"data":{"subject_id":1}}],"pages":{"next_url":null}}`)
	})

	_, err := c.UnlockedKanji(context.Background(), []int{1})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "subjects", se.Op)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}
