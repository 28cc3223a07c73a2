package processor

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/VivekAsole/video-processing-backend/internal/adapters/storage/localfs"
	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/jobs/jobstest"
	"github.com/VivekAsole/video-processing-backend/internal/overlay"
	"github.com/VivekAsole/video-processing-backend/internal/ports"
	"github.com/VivekAsole/video-processing-backend/internal/worker/renderer"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls []renderer.Request
	fn    func(renderer.Request) error
}

func (f *fakeRenderer) Render(ctx context.Context, req renderer.Request) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(req)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(req.OutputPath, []byte("rendered"), 0o644)
}

type fixture struct {
	store   *jobstest.Store
	records *jobstest.Records
	sp      *localfs.LocalFS
	rend    *fakeRenderer
	workDir string
	proc    *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   jobstest.NewStore(),
		records: jobstest.NewRecords(),
		sp:      localfs.New(t.TempDir()),
		rend:    &fakeRenderer{},
		workDir: t.TempDir(),
	}
	f.proc = New(Deps{
		Store:        f.store,
		Records:      f.records,
		Renderer:     f.rend,
		SP:           f.sp,
		WorkDir:      f.workDir,
		CleanupLocal: true,
		Namer:        jobs.Namer{Now: func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }},
	})
	return f
}

// withStore builds a processor over the fixture's dependencies and store.
func (f *fixture) withStore(store jobs.Store) *Processor {
	return New(Deps{
		Store:        store,
		Records:      f.records,
		Renderer:     f.rend,
		SP:           f.sp,
		WorkDir:      f.workDir,
		CleanupLocal: true,
		Namer:        jobs.Namer{Now: func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }},
	})
}

// ctxStore rejects status writes on a done context, as a database driver
// does. The first failSucceed Succeed calls fail.
type ctxStore struct {
	*jobstest.Store
	failSucceed  int
	succeedCalls int
}

func (s *ctxStore) Succeed(ctx context.Context, id, result string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.succeedCalls++
	if s.succeedCalls <= s.failSucceed {
		return fmt.Errorf("write tcp: connection reset by peer")
	}
	return s.Store.Succeed(ctx, id, result)
}

func (s *ctxStore) Fail(ctx context.Context, id, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Fail(ctx, id, message)
}

func (f *fixture) put(t *testing.T, key string, data []byte) {
	t.Helper()
	_, err := f.sp.PutObject(context.Background(), ports.PutObjectInput{ObjectKey: key, Reader: bytes.NewReader(data), Size: int64(len(data))})
	if err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func (f *fixture) submit(t *testing.T, p jobs.Payload) string {
	t.Helper()
	id := jobs.NewJobID()
	if err := f.store.Create(context.Background(), jobs.Job{ID: id, Status: jobs.StatusPending, Payload: p}); err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}

func textPayload() jobs.Payload {
	return jobs.Payload{
		VideoID:  "v1",
		InputKey: "videos/video_20240101_000000.mp4",
		Overlays: []overlay.Resolved{{Spec: overlay.Spec{
			Kind:   overlay.KindText,
			Window: overlay.Window{Start: 2, End: 5},
			Text:   &overlay.Text{Content: "Hi"},
		}}},
	}
}

func TestProcessJobSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	id := f.submit(t, textPayload())

	if err := f.proc.ProcessJob(ctx, id); err != nil {
		t.Fatalf("process: %v", err)
	}

	job, _ := f.store.Snapshot(id)
	if job.Status != jobs.StatusSucceeded {
		t.Fatalf("expected SUCCESS, got %s (%s)", job.Status, job.Error)
	}
	if job.StartedAt == nil || job.FinishedAt == nil {
		t.Error("expected start and finish times")
	}
	if !regexp.MustCompile(`^video_20240102_030405\.mp4$`).MatchString(job.Result) {
		t.Errorf("unexpected output name %s", job.Result)
	}

	rec, err := f.records.GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.OverlayFilename != job.Result || rec.ObjectKey != "overlays/"+job.Result {
		t.Errorf("unexpected record %+v", rec)
	}
	if !strings.Contains(string(rec.Overlays), `"Hi"`) {
		t.Errorf("record should keep the overlays, got %s", rec.Overlays)
	}

	rc, _, _, err := f.sp.GetObject(ctx, rec.ObjectKey)
	if err != nil {
		t.Fatalf("published output: %v", err)
	}
	rc.Close()

	if len(f.rend.calls) != 1 || f.rend.calls[0].Plan.Output != "v1" {
		t.Errorf("unexpected render calls %+v", f.rend.calls)
	}
	if _, err := os.Stat(filepath.Join(f.workDir, "jobs", id)); !os.IsNotExist(err) {
		t.Error("job directory should be removed")
	}
}

func TestProcessJobRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	f.rend.fn = func(renderer.Request) error { return fmt.Errorf("ffmpeg: exit status 1: Invalid argument") }
	id := f.submit(t, textPayload())

	if err := f.proc.ProcessJob(context.Background(), id); err == nil {
		t.Fatal("expected the render error")
	}

	job, _ := f.store.Snapshot(id)
	if job.Status != jobs.StatusFailed || !strings.Contains(job.Error, "Invalid argument") {
		t.Errorf("unexpected job %+v", job)
	}
	if _, err := f.records.GetRecord(context.Background(), id); err == nil {
		t.Error("no record on failure")
	}
	if _, err := os.Stat(filepath.Join(f.workDir, "jobs", id)); !os.IsNotExist(err) {
		t.Error("job directory should be removed after failure")
	}
}

func TestProcessJobCanceledRenderIsRecordedFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	proc := f.withStore(&ctxStore{Store: f.store})
	f.rend.fn = func(renderer.Request) error {
		cancel()
		return ctx.Err()
	}
	id := f.submit(t, textPayload())

	if err := proc.ProcessJob(ctx, id); err == nil {
		t.Fatal("expected the render error")
	}

	job, _ := f.store.Snapshot(id)
	if job.Status != jobs.StatusFailed {
		t.Fatalf("expected FAILURE after cancellation, got %s", job.Status)
	}
	if !strings.Contains(job.Error, "context canceled") {
		t.Errorf("unexpected error text %q", job.Error)
	}
}

func TestProcessJobRetriesSucceed(t *testing.T) {
	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	store := &ctxStore{Store: f.store, failSucceed: 1}
	id := f.submit(t, textPayload())

	if err := f.withStore(store).ProcessJob(context.Background(), id); err != nil {
		t.Fatalf("process: %v", err)
	}
	if store.succeedCalls != 2 {
		t.Errorf("expected one retry, got %d calls", store.succeedCalls)
	}
	if job, _ := f.store.Snapshot(id); job.Status != jobs.StatusSucceeded {
		t.Errorf("expected SUCCESS, got %s", job.Status)
	}
}

func TestProcessJobSucceedUnavailable(t *testing.T) {
	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	store := &ctxStore{Store: f.store, failSucceed: 2}
	id := f.submit(t, textPayload())

	err := f.withStore(store).ProcessJob(context.Background(), id)
	if err == nil || !strings.Contains(err.Error(), "failed to mark job succeeded") {
		t.Fatalf("expected a status error, got %v", err)
	}
	if store.succeedCalls != 2 {
		t.Errorf("expected two attempts, got %d", store.succeedCalls)
	}
}

func TestCopyClose(t *testing.T) {
	tests := []struct {
		name     string
		closeErr error
		wantErr  bool
	}{
		{"close ok", nil, false},
		{"close fails", fmt.Errorf("no space left on device"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &closeRecorder{err: tt.closeErr}
			err := copyClose(w, strings.NewReader("payload"))
			if (err != nil) != tt.wantErr {
				t.Errorf("copyClose() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !w.closed || w.String() != "payload" {
				t.Errorf("expected payload written and closed, got %q closed=%v", w.String(), w.closed)
			}
		})
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func TestProcessJobMissingInput(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, textPayload())

	_ = f.proc.ProcessJob(context.Background(), id)

	job, _ := f.store.Snapshot(id)
	if job.Status != jobs.StatusFailed || !strings.Contains(job.Error, "failed to materialize inputs") {
		t.Errorf("unexpected job %+v", job)
	}
	if len(f.rend.calls) != 0 {
		t.Error("renderer must not run without inputs")
	}
}

func TestProcessJobRunsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	id := f.submit(t, textPayload())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.proc.ProcessJob(ctx, id)
		}()
	}
	wg.Wait()

	if len(f.rend.calls) != 1 {
		t.Errorf("expected exactly one render, got %d", len(f.rend.calls))
	}
	if job, _ := f.store.Snapshot(id); job.Status != jobs.StatusSucceeded {
		t.Errorf("expected SUCCESS, got %s", job.Status)
	}
}

func TestProcessJobUnknownIsSkipped(t *testing.T) {
	f := newFixture(t)
	if err := f.proc.ProcessJob(context.Background(), "missing"); err != nil {
		t.Errorf("unknown jobs are skipped, got %v", err)
	}
}

func TestProcessJobPanicFailsJob(t *testing.T) {
	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	f.rend.fn = func(renderer.Request) error { panic("boom") }
	id := f.submit(t, textPayload())

	if err := f.proc.ProcessJob(context.Background(), id); err == nil {
		t.Fatal("expected an error")
	}
	job, _ := f.store.Snapshot(id)
	if job.Status != jobs.StatusFailed || !strings.Contains(job.Error, "panic: boom") {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestProcessJobMediaInputs(t *testing.T) {
	f := newFixture(t)
	f.put(t, "videos/video_20240101_000000.mp4", []byte("base"))
	f.put(t, "overlay_items/clip.mp4", []byte("clip"))

	var jpg bytes.Buffer
	if err := imaging.Encode(&jpg, imaging.New(4, 2, color.White), imaging.JPEG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.put(t, "overlay_items/logo.jpg", jpg.Bytes())

	p := textPayload()
	p.Overlays = []overlay.Resolved{
		{Spec: overlay.Spec{Kind: overlay.KindVideo, Window: overlay.Window{Start: 0, End: 1}, Media: &overlay.Media{FileKey: "v"}}, Source: "overlay_items/clip.mp4"},
		{Spec: overlay.Spec{Kind: overlay.KindImage, Window: overlay.Window{Start: 0, End: 1}, Media: &overlay.Media{FileKey: "i"}}, Source: "overlay_items/logo.jpg"},
	}
	id := f.submit(t, p)

	var seen renderer.Request
	f.rend.fn = func(req renderer.Request) error {
		seen = req
		for _, in := range append([]string{req.BasePath}, req.InputPaths...) {
			if _, err := os.Stat(in); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
			return err
		}
		return os.WriteFile(req.OutputPath, []byte("x"), 0o644)
	}

	if err := f.proc.ProcessJob(context.Background(), id); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(seen.InputPaths) != 2 {
		t.Fatalf("expected two media inputs, got %v", seen.InputPaths)
	}
	if filepath.Ext(seen.InputPaths[0]) != ".mp4" || filepath.Ext(seen.InputPaths[1]) != ".png" {
		t.Errorf("unexpected inputs %v", seen.InputPaths)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		payload jobs.Payload
		wantErr bool
	}{
		{"text", textPayload(), false},
		{"no input", jobs.Payload{}, true},
		{"media without source", jobs.Payload{InputKey: "videos/a.mp4", Overlays: []overlay.Resolved{
			{Spec: overlay.Spec{Kind: overlay.KindImage}},
		}}, true},
		{"bad kind", jobs.Payload{InputKey: "videos/a.mp4", Overlays: []overlay.Resolved{
			{Spec: overlay.Spec{Kind: "gif"}},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(jobs.Job{ID: "j", Payload: tt.payload})
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalExt(t *testing.T) {
	tests := []struct {
		key, contentType, want string
	}{
		{"videos/a.MP4", "", ".mp4"},
		{"1AbCdEfGh", "image/jpeg", ".jpg"},
		{"1AbCdEfGh", "video/webm; codecs=vp9", ".webm"},
		{"1AbCdEfGh", "application/octet-stream", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key+tt.contentType, func(t *testing.T) {
			if got := localExt(tt.key, tt.contentType); got != tt.want {
				t.Errorf("localExt = %q, want %q", got, tt.want)
			}
		})
	}
}
