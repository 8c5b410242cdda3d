package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/mock-interviewer/internal/extract"
	"github.com/chaz8081/mock-interviewer/internal/interview"
	"github.com/chaz8081/mock-interviewer/internal/llm"
	"github.com/chaz8081/mock-interviewer/internal/report"
	"github.com/chaz8081/mock-interviewer/internal/transcribe"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

// fakeDispatcher implements Dispatcher for testing.
type fakeDispatcher struct {
	DispatchFunc func(ctx context.Context, cmd interview.Command) (interview.Result, error)
	progress     interview.Progress
	commands     []interview.Command
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, cmd interview.Command) (interview.Result, error) {
	f.commands = append(f.commands, cmd)
	if f.DispatchFunc != nil {
		return f.DispatchFunc(ctx, cmd)
	}
	return interview.Result{Snapshot: interview.Snapshot{ID: "s1", State: interview.StateAwaitingSetup}}, nil
}

func (f *fakeDispatcher) Progress() interview.Progress { return f.progress }

func newTestServer(d Dispatcher) http.Handler {
	spa := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>app</html>"))
	})
	return New(d, spa, zerolog.Nop()).Routes()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var body sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"foo": "bar"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"foo":"bar"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"extraction", &extract.ExtractionError{Message: "bad"}, http.StatusUnprocessableEntity},
		{"generation", &llm.GenerationError{Message: "quota"}, http.StatusBadGateway},
		{"transcription", &transcribe.TranscriptionError{Message: "model"}, http.StatusInternalServerError},
		{"render", &report.RenderError{Message: "font"}, http.StatusInternalServerError},
		{"wrapped generation", fmt.Errorf("outer: %w", &llm.GenerationError{Message: "x"}), http.StatusBadGateway},
		{"unknown domain", fmt.Errorf("%w: %q", interview.ErrUnknownDomain, "x"), http.StatusBadRequest},
		{"unknown command", &interview.UnknownCommandError{Kind: "x"}, http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestSessionRoute(t *testing.T) {
	d := &fakeDispatcher{}
	w := do(t, newTestServer(d), httptest.NewRequest(http.MethodGet, "/api/session", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeSession(t, w)
	assert.Equal(t, "s1", body.ID)
	assert.Empty(t, body.Error)
	require.Len(t, d.commands, 1)
	assert.Equal(t, interview.KindSnapshot, d.commands[0].Kind)
}

func TestDomainsRoute(t *testing.T) {
	w := do(t, newTestServer(&fakeDispatcher{}), httptest.NewRequest(http.MethodGet, "/api/domains", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Domains []types.Domain `json:"domains"`
		Default types.Domain   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, types.Domains(), body.Domains)
	assert.Equal(t, types.DomainSoftwareDevelopment, body.Default)
}

func TestSelectDomainRoute(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDomain types.Domain
	}{
		{name: "canonical", body: `{"domain":"Data Science"}`, wantStatus: http.StatusOK, wantDomain: types.DomainDataScience},
		{name: "case folded", body: `{"domain":" devops "}`, wantStatus: http.StatusOK, wantDomain: types.DomainDevOps},
		{name: "unknown passes through", body: `{"domain":"Astrology"}`, wantStatus: http.StatusOK, wantDomain: "Astrology"},
		{name: "malformed", body: `{"domain":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			req := httptest.NewRequest(http.MethodPost, "/api/domain", strings.NewReader(tt.body))
			w := do(t, newTestServer(d), req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantDomain != "" {
				require.Len(t, d.commands, 1)
				assert.Equal(t, interview.KindSelectDomain, d.commands[0].Kind)
				assert.Equal(t, tt.wantDomain, d.commands[0].Domain)
			} else {
				assert.Empty(t, d.commands)
			}
		})
	}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadResumeRoute(t *testing.T) {
	d := &fakeDispatcher{}
	body, contentType := multipartBody(t, "resume", "cv.pdf", []byte("%PDF-1.4 data"))
	req := httptest.NewRequest(http.MethodPost, "/api/resume", body)
	req.Header.Set("Content-Type", contentType)

	w := do(t, newTestServer(d), req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, d.commands, 1)
	assert.Equal(t, interview.KindUploadResume, d.commands[0].Kind)
	assert.Equal(t, "cv.pdf", d.commands[0].Filename)
	assert.Equal(t, []byte("%PDF-1.4 data"), d.commands[0].PDF)
}

func TestUploadResumeRouteBadRequests(t *testing.T) {
	t.Run("wrong field", func(t *testing.T) {
		d := &fakeDispatcher{}
		body, contentType := multipartBody(t, "file", "cv.pdf", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/api/resume", body)
		req.Header.Set("Content-Type", contentType)

		w := do(t, newTestServer(d), req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, d.commands)
	})

	t.Run("not multipart", func(t *testing.T) {
		d := &fakeDispatcher{}
		req := httptest.NewRequest(http.MethodPost, "/api/resume", strings.NewReader("raw"))
		w := do(t, newTestServer(d), req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, d.commands)
	})
}

func TestCommandRoutes(t *testing.T) {
	routes := map[string]interview.Kind{
		"/api/interview/begin": interview.KindBeginInterview,
		"/api/interview/end":   interview.KindEndInterview,
		"/api/interview/new":   interview.KindNewInterview,
		"/api/record":          interview.KindRecordAnswer,
	}
	for path, kind := range routes {
		t.Run(path, func(t *testing.T) {
			d := &fakeDispatcher{}
			w := do(t, newTestServer(d), httptest.NewRequest(http.MethodPost, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			require.Len(t, d.commands, 1)
			assert.Equal(t, kind, d.commands[0].Kind)
		})
	}
}

func TestCommandErrorMapping(t *testing.T) {
	d := &fakeDispatcher{
		DispatchFunc: func(context.Context, interview.Command) (interview.Result, error) {
			return interview.Result{
				Snapshot: interview.Snapshot{
					ID:      "s1",
					State:   interview.StateInProgress,
					Notices: []interview.Notice{{Level: interview.NoticeError, Message: "The interviewer is unavailable"}},
				},
				Err: &llm.GenerationError{Message: "quota exceeded"},
			}, nil
		},
	}
	w := do(t, newTestServer(d), httptest.NewRequest(http.MethodPost, "/api/interview/end", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeSession(t, w)
	assert.Contains(t, body.Error, "quota exceeded")
	require.Len(t, body.Notices, 1)
	assert.Equal(t, interview.NoticeError, body.Notices[0].Level)
}

func TestDispatcherUnavailable(t *testing.T) {
	d := &fakeDispatcher{
		DispatchFunc: func(context.Context, interview.Command) (interview.Result, error) {
			return interview.Result{}, interview.ErrStopped
		},
	}
	w := do(t, newTestServer(d), httptest.NewRequest(http.MethodPost, "/api/record", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProgressRoute(t *testing.T) {
	d := &fakeDispatcher{progress: interview.Progress{Recording: true, Elapsed: 2500 * time.Millisecond, Total: 10 * time.Second}}
	w := do(t, newTestServer(d), httptest.NewRequest(http.MethodGet, "/api/record/progress", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recording":true,"elapsed_ms":2500,"total_ms":10000,"fraction":0.25}`, w.Body.String())
	assert.Empty(t, d.commands, "progress does not go through the queue")
}

func TestReportRoute(t *testing.T) {
	d := &fakeDispatcher{
		DispatchFunc: func(context.Context, interview.Command) (interview.Result, error) {
			return interview.Result{
				Snapshot: interview.Snapshot{State: interview.StateEnded},
				Report: &report.File{
					Name: "interview_report_20240305_143009.pdf",
					MIME: report.MIME,
					Data: []byte("%PDF-1.3 body"),
				},
			}, nil
		},
	}
	w := do(t, newTestServer(d), httptest.NewRequest(http.MethodGet, "/api/report", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="interview_report_20240305_143009.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "13", w.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.3 body", w.Body.String())
}

func TestReportRouteWithoutAnalysis(t *testing.T) {
	d := &fakeDispatcher{
		DispatchFunc: func(context.Context, interview.Command) (interview.Result, error) {
			return interview.Result{Snapshot: interview.Snapshot{
				State:   interview.StateInProgress,
				Notices: []interview.Notice{{Level: interview.NoticeWarning, Message: "No analysis is available yet."}},
			}}, nil
		},
	}
	w := do(t, newTestServer(d), httptest.NewRequest(http.MethodGet, "/api/report", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeSession(t, w)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, interview.NoticeWarning, body.Notices[0].Level)
}

func TestReportRouteRenderFailure(t *testing.T) {
	d := &fakeDispatcher{
		DispatchFunc: func(context.Context, interview.Command) (interview.Result, error) {
			return interview.Result{Err: &report.RenderError{Message: "lay out report"}}, nil
		},
	}
	w := do(t, newTestServer(d), httptest.NewRequest(http.MethodGet, "/api/report", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthAndSPA(t *testing.T) {
	h := newTestServer(&fakeDispatcher{})

	w := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")
}
