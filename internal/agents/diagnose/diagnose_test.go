package diagnose

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krishi-mitra/internal/classify"
	"krishi-mitra/internal/domain"
	"krishi-mitra/internal/knowledge"
)

type fakeClassifier struct {
	pred classify.Prediction
	err  error
}

func (f *fakeClassifier) Classify(context.Context, []byte) (classify.Prediction, error) {
	return f.pred, f.err
}

type fakeVision struct {
	reply string
	err   error
	calls int
}

func (f *fakeVision) GenerateVision(_ context.Context, _ string, _ domain.Image) (string, error) {
	f.calls++

	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testKB() *knowledge.Base {
	return knowledge.FromConfig(0.50, "Consult a local agricultural expert for specific treatment options.",
		[]string{"Tomato leaf"},
		map[string]string{"Tomato Early blight leaf": "Apply fungicides containing chlorothalonil or mancozeb."})
}

func mediaServer(t *testing.T, wantUser, wantPass string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantUser != "" {
			user, pass, ok := r.BasicAuth()
			require.True(t, ok, "media request must carry basic auth")
			assert.Equal(t, wantUser, user)
			assert.Equal(t, wantPass, pass)
		}
		_, _ = w.Write([]byte("not-really-a-jpeg"))
	}))
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary image files must be cleaned up")
}

func TestFromURL_HealthyDiagnosis(t *testing.T) {
	srv := mediaServer(t, "sid", "token")
	defer srv.Close()

	tempDir := t.TempDir()
	c := &fakeClassifier{pred: classify.Prediction{Class: "Tomato leaf", Confidence: 0.82}}
	vision := &fakeVision{}
	a := New(testLogger(), c, vision, testKB(), MediaAuth{Username: "sid", Password: "token"}, tempDir, srv.Client())

	res := a.FromURL(context.Background(), srv.URL)

	assert.Contains(t, res, "Healthy")
	assert.Contains(t, res, "82.0%")
	assert.Contains(t, res, "Tomato leaf")
	assert.Zero(t, vision.calls, "high confidence must not hit the vision fallback")
	assertTempDirEmpty(t, tempDir)
}

func TestFromURL_DiseasedDiagnosisWithRemedy(t *testing.T) {
	srv := mediaServer(t, "", "")
	defer srv.Close()

	tempDir := t.TempDir()
	c := &fakeClassifier{pred: classify.Prediction{Class: "Tomato Early blight leaf", Confidence: 0.91}}
	a := New(testLogger(), c, &fakeVision{}, testKB(), MediaAuth{}, tempDir, srv.Client())

	res := a.FromURL(context.Background(), srv.URL)

	assert.Contains(t, res, "Tomato Early blight leaf")
	assert.Contains(t, res, "Apply fungicides containing chlorothalonil or mancozeb.")
	assert.Contains(t, res, "Disclaimer: This is an AI suggestion. Always consult a local expert.")
	assert.Contains(t, res, "91.0%")
	assertTempDirEmpty(t, tempDir)
}

func TestFromURL_UnknownDiseaseFallsBackToDefaultRemedy(t *testing.T) {
	srv := mediaServer(t, "", "")
	defer srv.Close()

	c := &fakeClassifier{pred: classify.Prediction{Class: "grape leaf black rot", Confidence: 0.75}}
	a := New(testLogger(), c, &fakeVision{}, testKB(), MediaAuth{}, t.TempDir(), srv.Client())

	res := a.FromURL(context.Background(), srv.URL)

	assert.Contains(t, res, "Consult a local agricultural expert")
}

func TestFromURL_LowConfidenceUsesVisionOnce(t *testing.T) {
	srv := mediaServer(t, "", "")
	defer srv.Close()

	tempDir := t.TempDir()
	c := &fakeClassifier{pred: classify.Prediction{Class: "Tomato leaf", Confidence: 0.41}}
	vision := &fakeVision{reply: "Diagnosis: Leaf Miner damage. Suggested Remedy: Use neem oil spray."}
	a := New(testLogger(), c, vision, testKB(), MediaAuth{}, tempDir, srv.Client())

	res := a.FromURL(context.Background(), srv.URL)

	assert.Equal(t, vision.reply, res, "vision output must be returned unmodified")
	assert.Equal(t, 1, vision.calls)
	assertTempDirEmpty(t, tempDir)
}

func TestFromURL_VisionFailure(t *testing.T) {
	srv := mediaServer(t, "", "")
	defer srv.Close()

	c := &fakeClassifier{pred: classify.Prediction{Class: "Tomato leaf", Confidence: 0.10}}
	a := New(testLogger(), c, &fakeVision{err: errors.New("blocked")}, testKB(), MediaAuth{}, t.TempDir(), srv.Client())

	assert.Equal(t, msgVisionFailed, a.FromURL(context.Background(), srv.URL))
}

func TestFromURL_NoVisionConfigured(t *testing.T) {
	srv := mediaServer(t, "", "")
	defer srv.Close()

	c := &fakeClassifier{pred: classify.Prediction{Class: "Tomato leaf", Confidence: 0.10}}
	a := New(testLogger(), c, nil, testKB(), MediaAuth{}, t.TempDir(), srv.Client())

	assert.Equal(t, msgVisionMissing, a.FromURL(context.Background(), srv.URL))
}

func TestFromURL_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tempDir := t.TempDir()
	a := New(testLogger(), &fakeClassifier{}, &fakeVision{}, testKB(), MediaAuth{}, tempDir, srv.Client())

	assert.Equal(t, msgDownloadFailed, a.FromURL(context.Background(), srv.URL))
	assertTempDirEmpty(t, tempDir)
}

func TestFromURL_ClassifierErrorCleansUp(t *testing.T) {
	srv := mediaServer(t, "", "")
	defer srv.Close()

	tempDir := t.TempDir()
	c := &fakeClassifier{err: errors.New("broken tensor")}
	a := New(testLogger(), c, &fakeVision{}, testKB(), MediaAuth{}, tempDir, srv.Client())

	assert.Equal(t, msgUnclearPhoto, a.FromURL(context.Background(), srv.URL))
	assertTempDirEmpty(t, tempDir)
}

func TestFromURL_NoClassifier(t *testing.T) {
	a := New(testLogger(), nil, &fakeVision{}, testKB(), MediaAuth{}, t.TempDir(), nil)

	assert.Equal(t, msgModelMissing, a.FromURL(context.Background(), "http://example.invalid/img.jpg"))
}
