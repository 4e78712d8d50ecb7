package scenarios_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"go.nownabe.dev/bqloadbench"
	"go.nownabe.dev/bqloadbench/contrib/scenarios"
)

type testStore struct {
	mu      sync.Mutex
	objects map[string]bool
}

func (s *testStore) CreateBucket(_ context.Context, _, _, _ string) error { return nil }

func (s *testStore) Upload(_ context.Context, _, _, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = true
	return nil
}

func (s *testStore) Copy(_ context.Context, _, src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.objects[src] {
		return fmt.Errorf("%s not found", src)
	}
	s.objects[dst] = true
	return nil
}

func (s *testStore) List(_ context.Context, _, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := []string{}
	for n := range s.objects {
		if strings.HasPrefix(n, prefix) {
			names = append(names, n)
		}
	}
	return names, nil
}

func (s *testStore) DeleteObject(_ context.Context, _, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
	return nil
}

func (s *testStore) DeleteBucket(_ context.Context, _ string) error { return nil }

func (s *testStore) Close() error { return nil }

type testWarehouse struct {
	submitted int
	failAt    int
}

func (w *testWarehouse) CreateDataset(_ context.Context, _, _ string) error { return nil }

func (w *testWarehouse) Submit(_ context.Context, _, _, _ string, _ bqloadbench.JobConfig) (bqloadbench.PendingJob, error) {
	i := w.submitted
	w.submitted++

	start := time.Date(2020, 11, 21, 0, 0, 0, 0, time.UTC)

	return &testJob{
		name:   fmt.Sprintf("job_%d", i),
		timing: bqloadbench.JobTiming{Start: start, End: start.Add(time.Duration(i+1) * time.Second)},
		fail:   i == w.failAt,
	}, nil
}

func (w *testWarehouse) DeleteDataset(_ context.Context, _ string) error { return nil }

func (w *testWarehouse) Close() error { return nil }

type testJob struct {
	name   string
	timing bqloadbench.JobTiming
	fail   bool
}

func (j *testJob) ID() string { return j.name }

func (j *testJob) Wait(_ context.Context) (bqloadbench.JobTiming, error) {
	if j.fail {
		return bqloadbench.JobTiming{}, fmt.Errorf("%s failed", j.name)
	}
	return j.timing, nil
}

type testNotifier struct {
	results []*bqloadbench.Result
}

func (n *testNotifier) Notify(_ context.Context, r *bqloadbench.Result) error {
	n.results = append(n.results, r)
	return nil
}

var testDescriptors = []bqloadbench.Descriptor{
	{Path: "data/CSV_100_small.csv", Format: bqloadbench.CSV, Rows: 100, SizeMB: 0.01},
	{Path: "data/PARQUET_100_small.parquet", Format: bqloadbench.PARQUET, Rows: 100, SizeMB: 0.02},
	{Path: "data/CSV_1000_large.csv", Format: bqloadbench.CSV, Rows: 1000, SizeMB: 0.1},
}

func buildTestClientContext(t *testing.T, failAt int) (*bqloadbench.ClientContext, *testWarehouse, *testNotifier) {
	t.Helper()

	s := &testStore{objects: map[string]bool{}}
	for _, d := range testDescriptors {
		s.objects[bqloadbench.ObjectName("data", d.Path)] = true
	}

	w := &testWarehouse{failAt: failAt}
	n := &testNotifier{}

	cc, err := bqloadbench.NewClientContext(
		context.Background(),
		bqloadbench.Config{Project: "p", Location: "europe-west2", Bucket: "bucket", Dataset: "loadbench"},
		bqloadbench.WithObjectStore(s),
		bqloadbench.WithWarehouse(w),
		bqloadbench.WithLogger(zerolog.Nop()),
		bqloadbench.WithNotifier(n),
	)
	if err != nil {
		t.Fatalf("failed to build client context: %v", err)
	}

	return cc, w, n
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	ss := scenarios.Defaults()
	if len(ss) != 4 {
		t.Fatalf("Size of scenarios should be 4, but %d", len(ss))
	}

	expected := []struct {
		rows      int
		duplicate int
	}{
		{5000, 1},
		{50000, 1},
		{50000, 10},
		{50000, 20},
	}

	for i, e := range expected {
		s := ss[i]
		if s.Rows != e.rows || s.Duplicate != e.duplicate || s.Repeat != 10 {
			t.Errorf("unexpected scenario %d: %+v", i, s)
		}

		if s.Name == "" {
			t.Errorf("scenario %d should have a name", i)
		}
	}
}

func TestScenario_Filter(t *testing.T) {
	t.Parallel()

	f := scenarios.Scenario{Rows: 5000}.Filter()

	if !f(bqloadbench.Descriptor{Path: "CSV_5000_small.csv", Format: bqloadbench.CSV, Rows: 5000}) {
		t.Error("descriptor of 5000 rows should be accepted")
	}

	if f(bqloadbench.Descriptor{Path: "CSV_50000_large.csv", Format: bqloadbench.CSV, Rows: 50000}) {
		t.Error("descriptor of 50000 rows should be rejected")
	}
}

func TestScenario_Result(t *testing.T) {
	t.Parallel()

	s := scenarios.Scenario{Name: "large files", Rows: 50000, Repeat: 2, Duplicate: 10}
	ms := []bqloadbench.Measurement{
		{
			Descriptor: bqloadbench.Descriptor{Format: bqloadbench.AVRO, Rows: 50000, SizeMB: 30},
			Duplicate:  10,
			LoadTimes:  []float64{2, 4},
		},
		{
			Descriptor: bqloadbench.Descriptor{Format: bqloadbench.CSV, Rows: 50000, SizeMB: 40},
			Duplicate:  10,
			LoadTimes:  []float64{1, 3},
		},
	}

	failure := errors.New("boom")
	r := s.Result(ms, failure)

	if r.Name != "large files" {
		t.Errorf(`Name should be "large files", but "%s"`, r.Name)
	}

	if !errors.Is(r.Error, failure) {
		t.Errorf("Error should be %v, but %v", failure, r.Error)
	}

	if len(r.Summaries) != 2 {
		t.Fatalf("Size of summaries should be 2, but %d", len(r.Summaries))
	}

	if r.Summaries[0].Format != bqloadbench.CSV || r.Summaries[0].Avg != 2 {
		t.Errorf("unexpected first summary: %+v", r.Summaries[0])
	}

	if r.Summaries[1].Format != bqloadbench.AVRO || r.Summaries[1].Avg != 3 {
		t.Errorf("unexpected second summary: %+v", r.Summaries[1])
	}
}

func TestScenario_Result_empty(t *testing.T) {
	t.Parallel()

	r := scenarios.Scenario{Name: "small files"}.Result(nil, nil)

	if r.Error != nil || len(r.Summaries) != 0 {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestScenario_Run(t *testing.T) {
	t.Parallel()

	cc, w, n := buildTestClientContext(t, -1)
	s := scenarios.Scenario{Name: "small files", Rows: 100, Repeat: 2, Duplicate: 3}

	r, err := s.Run(context.Background(), cc, testDescriptors, "data")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if w.submitted != 4 {
		t.Errorf("Size of submitted jobs should be 4, but %d", w.submitted)
	}

	if len(r.Records) != 4 || len(r.Summaries) != 2 || r.Error != nil {
		t.Errorf("unexpected result: %+v", r)
	}

	for _, rec := range r.Records {
		if rec.Rows != 100 || rec.Duplicate != 3 {
			t.Errorf("unexpected record: %+v", rec)
		}
	}

	if len(n.results) != 1 || n.results[0] != r {
		t.Errorf("notifier should receive the result once, but %v", n.results)
	}
}

func TestScenario_Run_failure(t *testing.T) {
	t.Parallel()

	// The second job of the second configuration fails.
	cc, _, n := buildTestClientContext(t, 3)
	s := scenarios.Scenario{Name: "small files", Rows: 100, Repeat: 2, Duplicate: 1}

	r, err := s.Run(context.Background(), cc, testDescriptors, "data")
	if err == nil {
		t.Fatal("expected error but no error occurred")
	}

	if !errors.Is(r.Error, err) {
		t.Errorf("result should carry the error %v, but %v", err, r.Error)
	}

	if len(r.Records) != 2 {
		t.Fatalf("Size of records should be 2, but %d", len(r.Records))
	}

	for i, rec := range r.Records {
		if rec.Format != bqloadbench.CSV || rec.ElapsedSeconds != float64(i+1) {
			t.Errorf("unexpected record %d: %+v", i, rec)
		}
	}

	if len(n.results) != 1 || n.results[0] != r {
		t.Errorf("notifier should receive the partial result once, but %v", n.results)
	}
}
