package sink

import (
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseSink_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewResponseSink(rec)

	w, err := s.Open("photos")
	require.NoError(t, err)
	_, err = w.Write([]byte("PK"))
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=photos.zip`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, "PK", rec.Body.String())
	assert.False(t, s.Background())
	assert.Equal(t, "http:photos.zip", s.Destination())

	_, err = s.Open("again")
	assert.ErrorIs(t, err, ErrAlreadyOpened)
}

func TestResponseSink_ContentDispositionEscapesName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{`a"; filename="evil.exe`, `a"; filename="evil.exe.zip`},
		{"отчет за май", "отчет за май.zip"},
		{"semi;colon", "semi;colon.zip"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			_, err := NewResponseSink(rec).Open(c.name)
			require.NoError(t, err)

			disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, map[string]string{"filename": c.want}, params)
		})
	}
}

func TestResponseSink_AbortBeforeBody(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewResponseSink(rec)

	_, err := s.Open("photos")
	require.NoError(t, err)
	require.NoError(t, s.Abort(errors.New("source missing")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "source missing")
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestResponseSink_AbortAfterBody(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewResponseSink(rec)

	w, err := s.Open("photos")
	require.NoError(t, err)
	_, err = w.Write([]byte("PK"))
	require.NoError(t, err)
	require.NoError(t, s.Abort(errors.New("disk gone")))

	res := rec.Result()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "disk gone", res.Trailer.Get(ErrorTrailer))
}

func TestResponseSink_CommitWithoutOpen(t *testing.T) {
	s := NewResponseSink(httptest.NewRecorder())
	assert.ErrorIs(t, s.Commit(), ErrNotOpened)
}

func TestFileSink_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice", "out.zip")
	s := NewFileSink(path)

	w, err := s.Open("out")
	require.NoError(t, err)
	_, err = w.Write([]byte("PK"))
	require.NoError(t, err)
	assert.NoFileExists(t, path)
	require.NoError(t, s.Commit())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data))
	assertNoPartFiles(t, filepath.Dir(path))
	assert.True(t, s.Background())
	assert.Equal(t, path, s.Destination())
}

func TestFileSink_Abort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	s := NewFileSink(path)

	assert.NoError(t, s.Abort(errors.New("nothing opened")))

	w, err := s.Open("out")
	require.NoError(t, err)
	_, err = w.Write([]byte("PK\x03\x04 truncated"))
	require.NoError(t, err)
	require.NoError(t, s.Abort(errors.New("boom")))

	assert.NoFileExists(t, path)
	assertNoPartFiles(t, filepath.Dir(path))
}

func TestFileSink_AbortKeepsPreviousArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	s := NewFileSink(path)
	w, err := s.Open("out")
	require.NoError(t, err)
	_, err = w.Write([]byte("broken"))
	require.NoError(t, err)
	require.NoError(t, s.Abort(errors.New("boom")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestFileSink_ConcurrentSinksSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice", "out.zip")
	payloads := []string{strings.Repeat("a", 1<<16), strings.Repeat("b", 300)}

	var wg sync.WaitGroup
	for _, payload := range payloads {
		wg.Add(1)
		go func(payload string) {
			defer wg.Done()
			s := NewFileSink(path)
			w, err := s.Open("out")
			if !assert.NoError(t, err) {
				return
			}
			for i := 0; i < len(payload); i += 100 {
				end := min(i+100, len(payload))
				_, err := w.Write([]byte(payload[i:end]))
				assert.NoError(t, err)
			}
			assert.NoError(t, s.Commit())
		}(payload)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, payloads, string(data), "destination must hold exactly one complete payload")
	assertNoPartFiles(t, filepath.Dir(path))
}

func assertNoPartFiles(t *testing.T, dir string) {
	t.Helper()
	parts, err := filepath.Glob(filepath.Join(dir, ".*.zip.part"))
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestFileSink_Errors(t *testing.T) {
	_, err := NewFileSink("").Open("x")
	assert.ErrorIs(t, err, ErrPathEmpty)

	assert.ErrorIs(t, NewFileSink("/tmp/x.zip").Commit(), ErrNotOpened)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	_, err = NewFileSink(filepath.Join(blocker, "out.zip")).Open("out")
	assert.ErrorIs(t, err, ErrMkdirFailed)
}
