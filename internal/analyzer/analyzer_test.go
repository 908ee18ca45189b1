package analyzer

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/errdetective/internal/engine"
	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/metrics"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

func TestAnalyze_DictInput(t *testing.T) {
	a := New()

	tests := []struct {
		name     string
		data     map[string]any
		status   int
		category taxonomy.Category
	}{
		{"int status", map[string]any{"status_code": 401, "message": "Authentication failed"}, 401, taxonomy.CategoryAuthError},
		{"float status", map[string]any{"status_code": float64(404)}, 404, taxonomy.CategoryResourceNotFound},
		{"digit string status", map[string]any{"status_code": "500"}, 500, taxonomy.CategoryServerError},
		{"junk status", map[string]any{"status_code": "5xx"}, 0, taxonomy.CategoryUnknown},
		{"missing everything", map[string]any{}, 0, taxonomy.CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := a.Analyze(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.status, r.StatusCode)
			assert.Equal(t, tt.category, r.Category)
			assert.Equal(t, "dict", r.InputKind)
		})
	}

	r, err := a.Analyze(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Unknown error", r.Message)
}

func TestAnalyze_RateLimitRetryAfter(t *testing.T) {
	a := New()

	r, err := a.Analyze(map[string]any{"status_code": 429, "message": "Too many requests"})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryRateLimit, r.Category)
	assert.True(t, r.IsRetryable)
	require.NotNil(t, r.RetryAfter)
	assert.Equal(t, 60, *r.RetryAfter)

	r, err = a.Analyze(map[string]any{
		"status_code": 429,
		"message":     "Too many requests",
		"headers":     map[string]any{"Retry-After": "5"},
	})
	require.NoError(t, err)
	require.NotNil(t, r.RetryAfter)
	assert.Equal(t, 5, *r.RetryAfter)
}

func TestAnalyze_TransientServerErrorRetryAfter(t *testing.T) {
	a := New()
	for _, in := range []ClassificationInput{
		{StatusCode: 500, Message: "upstream timeout"},
		{StatusCode: 503, Message: "connection reset by peer"},
	} {
		r, err := a.Analyze(in)
		require.NoError(t, err)
		assert.Equal(t, taxonomy.CategoryServerError, r.Category, in.Message)
		assert.True(t, r.IsRetryable)
		require.NotNil(t, r.RetryAfter)
		assert.Equal(t, 10, *r.RetryAfter)
	}
}

func TestAnalyze_VendorCodeWins(t *testing.T) {
	r, err := New().Analyze(ClassificationInput{StatusCode: 200, VendorCode: "40001", Message: "rate limit exceeded"})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryInvalidToken, r.Category)
	assert.Equal(t, engine.TierVendorCode, r.Tier)
	assert.Nil(t, r.RetryAfter)
}

func TestAnalyze_EndpointDisambiguation(t *testing.T) {
	a := New()

	blocked, err := a.Analyze(ClassificationInput{StatusCode: 404, Message: "Not found", Endpoint: "user.user_profile"})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryUserBlocked, blocked.Category)
	assert.Equal(t, "user.user_profile", blocked.Endpoint)

	plain, err := a.Analyze(ClassificationInput{StatusCode: 404, Message: "Not found"})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryResourceNotFound, plain.Category)
}

func TestAnalyze_EndpointGuidance(t *testing.T) {
	r, err := New().Analyze(DictInput{
		Data:     map[string]any{"status_code": 429, "message": "You have reached your monthly limit."},
		Endpoint: "message_push",
	})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryRateLimit, r.Category)
	assert.Equal(t, "PUSH_RATE_LIMIT", r.EndpointCode)
	assert.Equal(t, "message.message_push", r.Endpoint)
	assert.NotEmpty(t, r.Solutions)
}

func TestAnalyze_ResponseInput(t *testing.T) {
	r, err := New().Analyze(ResponseInput{
		StatusCode: 400,
		Headers:    map[string]string{"X-Line-Request-Id": "req-1"},
		Text:       `{"message":"The request body has 1 error(s)","details":[{"message":"May not be empty","property":"messages[0].text"}]}`,
	})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryInvalidRequestBody, r.Category)
	assert.Equal(t, "req-1", r.RequestID)
	require.Len(t, r.Details, 1)

	r, err = New().Analyze(ResponseInput{StatusCode: 502, Text: "<html>Bad Gateway</html>"})
	require.NoError(t, err)
	assert.Equal(t, "<html>Bad Gateway</html>", r.Message)
	assert.Equal(t, taxonomy.CategoryServerError, r.Category)
	require.NotNil(t, r.RetryAfter)
	assert.Equal(t, 10, *r.RetryAfter)
}

func TestAnalyze_HTTPResponse(t *testing.T) {
	resp := &http.Response{
		StatusCode: 403,
		Header:     http.Header{"X-Line-Request-Id": []string{"abc"}},
		Body:       io.NopCloser(strings.NewReader(`{"message":"Access to this API is not available for your account"}`)),
	}
	r, err := New().Analyze(resp)
	require.NoError(t, err)
	assert.Equal(t, 403, r.StatusCode)
	assert.Equal(t, "abc", r.RequestID)
	assert.Equal(t, taxonomy.CategoryAccessDenied, r.Category)

	// The body stays readable for the caller.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Access to this API")
}

func TestAnalyze_V3Exception(t *testing.T) {
	a := New()

	r, err := a.Analyze(V3ExceptionInput{
		Status:  400,
		Reason:  "Bad Request",
		Headers: map[string]string{"x-line-request-id": "v3-id"},
		Body:    []byte(`{"message":"Invalid reply token"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryInvalidReplyToken, r.Category)
	assert.Equal(t, "v3-id", r.RequestID)

	r, err = a.Analyze(V3ExceptionInput{Status: 401, Reason: "Unauthorized"})
	require.NoError(t, err)
	assert.Equal(t, "Unauthorized", r.Message)
	assert.Equal(t, taxonomy.CategoryAuthError, r.Category)

	r, err = a.Analyze(&V3ExceptionInput{Status: 500, Body: []byte("not json")})
	require.NoError(t, err)
	assert.Equal(t, "not json", r.Message)
}

func TestAnalyze_V2Exception(t *testing.T) {
	r, err := New().Analyze(V2ExceptionInput{
		StatusCode:        400,
		RequestID:         "v2-id",
		AcceptedRequestID: "acc-1",
		Error: &V2ErrorBody{
			Message: "The request body has 2 error(s)",
			Details: []V2ErrorDetail{{Message: "must be specified", Property: "to"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.CategoryInvalidRequestBody, r.Category)
	assert.Equal(t, "v2-id", r.RequestID)
	assert.Equal(t, "acc-1", r.AcceptedRequestID)
	assert.Len(t, r.Details, 1)

	r, err = New().Analyze(V2ExceptionInput{StatusCode: 500})
	require.NoError(t, err)
	assert.Equal(t, "Unknown error", r.Message)
}

func TestAnalyze_SignatureError(t *testing.T) {
	r, err := New().Analyze(SignatureErrorInput{Message: "Signature does not match"})
	require.NoError(t, err)
	assert.Equal(t, 400, r.StatusCode)
	assert.Equal(t, taxonomy.CategoryInvalidSignature, r.Category)
	assert.False(t, r.IsRetryable)
	assert.Equal(t, taxonomy.SeverityCritical, r.Severity)
	assert.Equal(t, engine.TierInputType, r.Tier)
	assert.Equal(t, "InvalidSignatureError", r.RawInput["error_type"])
}

func TestAnalyze_LogText(t *testing.T) {
	log := "(404)\n" +
		"HTTP response headers: HTTPHeaderDict({'x-line-request-id': 'abc123'})\n" +
		`HTTP response body: {"message":"Not found"}`

	r := New().AnalyzeLog(context.Background(), log, "user.user_profile")
	assert.Equal(t, 404, r.StatusCode)
	assert.Equal(t, "abc123", r.RequestID)
	assert.Equal(t, taxonomy.CategoryUserBlocked, r.Category)
	assert.Equal(t, log, r.RawInput["log"])
}

func TestAnalyze_UnparseableLogDegrades(t *testing.T) {
	r, err := New().Analyze("hello world")
	require.NoError(t, err)
	assert.Equal(t, 0, r.StatusCode)
	assert.Equal(t, "hello world", r.Message)
	assert.Equal(t, taxonomy.CategoryUnknown, r.Category)
	assert.False(t, r.IsRetryable)
	assert.Equal(t, "failed to parse error log", r.Description)
}

func TestAnalyze_MapWithLogKey(t *testing.T) {
	r, err := New().Analyze(map[string]any{"log": "Status: 429", "endpoint": "message.message_broadcast"})
	require.NoError(t, err)
	assert.Equal(t, "log_text", r.InputKind)
	assert.Equal(t, taxonomy.CategoryQuotaExceeded, r.Category)
	assert.False(t, r.IsRetryable)
}

func TestAnalyze_UnsupportedInput(t *testing.T) {
	_, err := New().Analyze(42)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryUnsupportedInput))

	_, err = New().Analyze(nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryUnsupportedInput))
}

type rogueInput struct{}

func (rogueInput) Kind() string { return "rogue" }
func (rogueInput) isInput()     {}

func TestAnalyze_InternalFaultIsWrapped(t *testing.T) {
	_, err := New().Analyze(rogueInput{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryInternal))
}

func TestAnalyzeContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().AnalyzeContext(ctx, map[string]any{"status_code": 500})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRuntime))
	assert.True(t, stdErrors.Is(err, context.Canceled))
}

func TestAnalyze_ResultDoesNotAliasInput(t *testing.T) {
	headers := map[string]string{"Retry-After": "7"}
	r, err := New().Analyze(ClassificationInput{StatusCode: 429, Headers: headers})
	require.NoError(t, err)
	headers["Retry-After"] = "99"
	assert.Equal(t, "7", r.Headers["Retry-After"])
	assert.Equal(t, 7, *r.RetryAfter)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := New()
	in := ClassificationInput{StatusCode: 400, Message: "Invalid reply token", Endpoint: "message.message_reply"}
	first, err := a.Analyze(in)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := a.Analyze(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []Result
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, r Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return p.err
}

func TestAnalyze_Publishes(t *testing.T) {
	pub := &recordingPublisher{}
	a := New(WithPublisher(pub))

	_, err := a.Analyze(map[string]any{"status_code": 500})
	require.NoError(t, err)
	require.Len(t, pub.results, 1)
	assert.Equal(t, taxonomy.CategoryServerError, pub.results[0].Category)

	pub.err = stdErrors.New("nats down")
	r, err := a.Analyze(map[string]any{"status_code": 401})
	require.NoError(t, err, "publish failures never affect classification")
	assert.Equal(t, taxonomy.CategoryAuthError, r.Category)
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu        sync.Mutex
	cacheHits int
	cacheMiss int
	results   map[metrics.ResultLabel]int
}

func (c *countingRecorder) IncParseCache(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.cacheHits++
	} else {
		c.cacheMiss++
	}
}

func (c *countingRecorder) IncInputResult(_ string, r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[metrics.ResultLabel]int{}
	}
	c.results[r]++
}

func TestAnalyze_ParseCache(t *testing.T) {
	rec := &countingRecorder{}
	a := New(WithRecorder(rec), WithParseCache(4))

	for i := 0; i < 3; i++ {
		_, err := a.Analyze("Status: 503")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, rec.cacheMiss)
	assert.Equal(t, 2, rec.cacheHits)
	assert.Equal(t, 3, rec.results[metrics.ResultClassified])

	_, _ = a.Analyze(3.14)
	assert.Equal(t, 1, rec.results[metrics.ResultUnsupported])
}

func TestResult_MarshalJSON(t *testing.T) {
	r, err := New().Analyze(ClassificationInput{StatusCode: 429, Message: "Too many requests", Endpoint: "message.message_push"})
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(429), doc["basic"]["status_code"])
	assert.Equal(t, "PUSH_RATE_LIMIT", doc["basic"]["error_code"])
	assert.Equal(t, "RATE_LIMIT", doc["analysis"]["category"])
	assert.Equal(t, "HIGH", doc["analysis"]["severity"])
	assert.Equal(t, true, doc["analysis"]["is_retryable"])
	assert.Equal(t, float64(60), doc["guidance"]["retry_after"])
	assert.NotNil(t, doc["raw_data"]["headers"])
}

func TestResult_String(t *testing.T) {
	r, err := New().Analyze(ClassificationInput{StatusCode: 503, Message: "Service Unavailable", RequestID: "rid-1"})
	require.NoError(t, err)
	s := r.String()
	assert.True(t, strings.HasPrefix(s, "[SERVER_ERROR] 503 Service Unavailable"))
	assert.Contains(t, s, "retry after 10s")
	assert.Contains(t, s, "Request ID: rid-1")
}

func TestAnalyzeBatch_Isolation(t *testing.T) {
	a := New()
	results := a.AnalyzeBatch(context.Background(), []any{
		map[string]any{"status_code": 429},
		42,
		"(500) Internal Server Error",
	})
	require.Len(t, results, 3)

	assert.Equal(t, taxonomy.CategoryRateLimit, results[0].Category)

	assert.Equal(t, taxonomy.CategoryUnknown, results[1].Category)
	assert.True(t, strings.HasPrefix(results[1].Description, "Analysis failed:"))
	assert.Equal(t, "int", results[1].InputKind)

	assert.Equal(t, taxonomy.CategoryServerError, results[2].Category)
	assert.Equal(t, 500, results[2].StatusCode)
}

func TestAnalyzeBatch_OrderAcrossChunks(t *testing.T) {
	a := New(WithChunkSize(3), WithConcurrency(2))
	var values []any
	for i := 0; i < 25; i++ {
		values = append(values, ClassificationInput{StatusCode: 400 + i, Message: "x"})
	}
	results := a.AnalyzeBatch(context.Background(), values)
	require.Len(t, results, 25)
	for i, r := range results {
		assert.Equal(t, 400+i, r.StatusCode)
	}
}

func TestAnalyzeBatch_EmptyAndCanceled(t *testing.T) {
	a := New()
	assert.Empty(t, a.AnalyzeBatch(context.Background(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	results := a.AnalyzeBatch(ctx, []any{map[string]any{"status_code": 500}})
	require.Len(t, results, 1)
	assert.Equal(t, taxonomy.CategoryUnknown, results[0].Category)
	assert.Contains(t, results[0].Description, "analysis canceled")
}

func TestAnalyzeBatch_ConcurrentUse(t *testing.T) {
	a := New(WithConcurrency(4))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results := a.AnalyzeBatch(context.Background(), []any{"Status: 429", "HTTP 504", map[string]any{"status_code": 401}})
			assert.Equal(t, taxonomy.CategoryRateLimit, results[0].Category)
			assert.Equal(t, taxonomy.CategoryTimeoutError, results[1].Category)
			assert.Equal(t, taxonomy.CategoryAuthError, results[2].Category)
		}()
	}
	wg.Wait()
}

func TestFromValue(t *testing.T) {
	in, err := FromValue([]byte("Status: 400"))
	require.NoError(t, err)
	assert.Equal(t, "log_text", in.Kind())

	in, err = FromValue(SignatureErrorInput{})
	require.NoError(t, err)
	assert.Equal(t, "signature_error", in.Kind())

	_, err = FromValue(struct{}{})
	assert.True(t, errors.IsCategory(err, errors.CategoryUnsupportedInput))
}
