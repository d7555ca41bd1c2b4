package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pathways_backend/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport(t *testing.T) {
	var gotAuth string
	var gotBody protocol.Submission

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/assessment/m1/u1":
			w.Write([]byte(`{"complete":false,"assessType":"quiz","points":10,"questions":[{"id":"q1","text":"?","count":1,"answers":[{"id":"a","text":"A"}]}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/assessment/m1/u1":
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, &gotBody)
			w.Write([]byte(`{"status":"error","points":10,"errors":1,"errorMsg":"x","incorrect":{"q1":["a"]}}`))
		case r.URL.Path == "/api/assessment/m1/bad":
			// correct without moduleProgress violates the contract
			w.Write([]byte(`{"status":"correct","points":10}`))
		case r.URL.Path == "/api/progress/module/m1":
			w.Write([]byte(`{"code":200,"message":"success","data":{"percentComplete":33,"earnedTime":10,"totalTime":30,"earnedPoints":10,"totalPoints":30,"label":"20 min remaining"}}`))
		case r.URL.Path == "/api/progress/path/p1":
			// 2xx with an error code and no snapshot
			w.Write([]byte(`{"code":500,"message":"Storage unavailable"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":404,"message":"Resource not found"}`))
		}
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL+"/", "tok")
	ctx := context.Background()

	view, err := tr.FetchSession(ctx, "m1/u1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, view.Questions, 1)

	resp, err := tr.SubmitAnswers(ctx, "m1/u1", protocol.Submission{"q1": {"a"}})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, protocol.Submission{"q1": {"a"}}, gotBody)

	_, err = tr.SubmitAnswers(ctx, "m1/bad", nil)
	var verr *protocol.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = tr.FetchSession(ctx, "m9/u9")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)

	snap, err := tr.ModuleProgress(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 33, snap.PercentComplete)

	_, err = tr.PathProgress(ctx, "p1")
	verr = nil
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "progress", verr.Schema)
}
