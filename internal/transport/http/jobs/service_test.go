package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustlens-server-go/internal/domain/eventbus"
	"trustlens-server-go/internal/domain/history"
	"trustlens-server-go/internal/domain/jobfraud"
	platformtesting "trustlens-server-go/internal/platform/testing"
	"trustlens-server-go/internal/utils"
)

// records returns the history records carried by the published events.
func records(pub *platformtesting.RecordingPublisher) []history.Record {
	var out []history.Record
	for _, e := range pub.Events() {
		for _, arg := range e.Args {
			if rec, ok := arg.(history.Record); ok {
				out = append(out, rec)
			}
		}
	}
	return out
}

func newEngine(t *testing.T, pub eventbus.Publisher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := NewService(jobfraud.NewScorer(jobfraud.DefaultRules()), pub, utils.NewDiscardLogger())
	require.NoError(t, err)

	engine := gin.New()
	require.NoError(t, svc.Register(context.Background(), engine.Group("/api")))
	return engine
}

func post(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-job", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeJobScamScenario(t *testing.T) {
	pub := &platformtesting.RecordingPublisher{}
	engine := newEngine(t, pub)

	rec := post(engine, `{
		"title": "Work from home",
		"description": "Easy money! Earn thousands weekly, no experience needed, urgent hiring, act now!",
		"company": "",
		"salary": "$5000 per week"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.IsFraudulent)
	assert.Equal(t, 100, resp.RiskScore)
	assert.Equal(t, 1.0, resp.Confidence)
	assert.LessOrEqual(t, len(resp.FraudIndicators), 5)
	assert.Equal(t, "This job posting has a 100% fraud probability.", resp.Explanation)
	assert.GreaterOrEqual(t, resp.Details.KeywordMatches, 5)

	assert.Equal(t, []string{eventbus.EventAnalysisCompleted}, pub.Topics())
	saved := records(pub)
	require.Len(t, saved, 1)
	assert.Equal(t, resp.AnalysisID, saved[0].ID)
	assert.Equal(t, history.KindJob, saved[0].Kind)
	assert.Equal(t, "Fraudulent", saved[0].Label)
	assert.Equal(t, "Work from home", saved[0].Source)
}

func TestAnalyzeJobDetailsUseSnakeCaseKeys(t *testing.T) {
	engine := newEngine(t, nil)

	rec := post(engine, `{"title":"Engineer","company":"Acme Corp"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "keyword_matches")
	assert.Contains(t, details, "text_length")
	assert.Contains(t, details, "legitimate_signals")
	assert.NotNil(t, body["fraud_indicators"])
}

func TestAnalyzeJobScoresObjectWithBlankFields(t *testing.T) {
	engine := newEngine(t, nil)

	rec := post(engine, `{ "title": "" }`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 30, body["risk_score"])
}

func TestAnalyzeJobRejectsEmptyBodies(t *testing.T) {
	engine := newEngine(t, nil)

	for _, body := range []string{"", "   ", "null", " null ", "{}", "{ }", "{\n}", "\t{\r\n}\n", "[]", "{not json"} {
		rec := post(engine, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["success"])
		assert.NotEmpty(t, resp["error"])
	}
}
