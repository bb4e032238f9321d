package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/glutensim/internal/metrics"
)

func testSamples() []metrics.Sample {
	return []metrics.Sample{
		{Tick: 10, Time: 0.1, Bonds: 4, Broken: 0, Modulus: 1.25},
		{Tick: 20, Time: 0.2, Bonds: 6, Broken: 1, Modulus: 0.5},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{
		Preset:  "kneading",
		Seed:    42,
		Agents:  100,
		Dt:      0.01,
		Metrics: map[string]float64{"modulus": 0.5},
	}, testSamples())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "kneading_") {
		t.Errorf("run id %q should start with the preset", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 || meta.Agents != 100 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Metrics["modulus"] != 0.5 {
		t.Errorf("expected modulus 0.5, got %f", meta.Metrics["modulus"])
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[1] != testSamples()[1] {
		t.Errorf("sample = %+v, want %+v", samples[1], testSamples()[1])
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("empty store: %v, %v", runs, err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"b", "a"} {
		if _, err := st.Save(RunMetadata{ID: id, Timestamp: base.Add(time.Duration(i) * time.Hour)}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "b" || runs[1].ID != "a" {
		t.Errorf("runs = %+v, want b then a", runs)
	}
}

func TestReadSamplesCSVErrors(t *testing.T) {
	if _, err := ReadSamplesCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
	bad := "tick,time,bonds,broken,modulus\n10,0.1,x,0,1\n"
	_, err := ReadSamplesCSV(strings.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v, want line 2", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{ID: "r1"}, testSamples()); err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Run.ID != "r1" || len(got.Samples) != 2 {
		t.Errorf("export = %+v", got)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	for _, s := range testSamples() {
		r.OnSample(s)
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}
	got := r.Samples()
	got[0].Bonds = 99
	if r.Samples()[0].Bonds == 99 {
		t.Error("Samples returned shared storage")
	}
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runID, err := st.Save(RunMetadata{ID: "r"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := st.WriteArtifact(runID, "final.svg", []byte("<svg/>")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, runID, "final.svg"))
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("artifact = %q, %v", data, err)
	}

	for _, bad := range []string{"../escape", "metadata.json", "samples.csv"} {
		if err := st.WriteArtifact(runID, bad, nil); err == nil {
			t.Errorf("WriteArtifact(%q) should fail", bad)
		}
	}
}
