package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssd-geocoder/app/models"
)

func TestExtractedCandidates_Strings(t *testing.T) {
	e := &ExtractedCandidates{
		States:   []string{"Unity", ""},
		Counties: []string{"Rubkona", "Unity"},
		Villages: []string{"Bentiu", "Rubkona"},
	}
	// most specific first, duplicates and empties dropped
	assert.Equal(t, []string{"Bentiu", "Rubkona", "Unity"}, e.Strings())

	var nilCands *ExtractedCandidates
	assert.Nil(t, nilCands.Strings())
}

func TestExtractedCandidates_FillConstraints(t *testing.T) {
	e := &ExtractedCandidates{
		States:   []string{"Unity"},
		Counties: []string{"Rubkona"},
		Villages: []string{"Bentiu"},
	}
	cons := e.FillConstraints(models.Constraints{State: "Warrap"})

	assert.Equal(t, "Warrap", cons.State, "parsed constraint kept")
	assert.Equal(t, "Rubkona", cons.County, "empty field filled")
	assert.Equal(t, "Bentiu", cons.Village)
	assert.Empty(t, cons.Payam)
}

func TestExtractedCandidates_Empty(t *testing.T) {
	assert.True(t, (&ExtractedCandidates{}).Empty())
	assert.True(t, (*ExtractedCandidates)(nil).Empty())
	assert.False(t, (&ExtractedCandidates{Bomas: []string{"Dhor"}}).Empty())
}

func TestHTTPExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abiemnhom town unity", req.Text)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(ExtractedCandidates{
			States:   []string{"Unity"},
			Villages: []string{"Abiemnhom Town"},
			Coverage: 0.75,
		})
	}))
	defer srv.Close()

	x := NewHTTPExtractor(srv.URL, time.Second, nil)
	got, err := x.Extract(context.Background(), "abiemnhom town unity")
	require.NoError(t, err)
	assert.Equal(t, []string{"Unity"}, got.States)
	assert.Equal(t, []string{"Abiemnhom Town"}, got.Villages)
	assert.InDelta(t, 0.75, got.Coverage, 1e-9)
}

func TestHTTPExtractor_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	x := NewHTTPExtractor(srv.URL, time.Second, nil)
	_, err := x.Extract(context.Background(), "bentiu")
	assert.Error(t, err)
}

func TestHTTPExtractor_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	x := NewHTTPExtractor(srv.URL, time.Second, nil)
	_, err := x.Extract(context.Background(), "bentiu")
	assert.Error(t, err)
}

func TestHTTPExtractor_Unreachable(t *testing.T) {
	x := NewHTTPExtractor("http://127.0.0.1:1", 100*time.Millisecond, nil)
	_, err := x.Extract(context.Background(), "bentiu")
	assert.Error(t, err)
}

func TestDisabled_Extract(t *testing.T) {
	got, err := Disabled{}.Extract(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}
