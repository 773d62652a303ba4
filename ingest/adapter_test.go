package ingest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/SonJH7/status-allocation-berths/core/model"
	"github.com/SonJH7/status-allocation-berths/infra/mqtt"
	"github.com/SonJH7/status-allocation-berths/ingest"
)

type fakeCommitter struct {
	batches []committed
	fail    error
}

type committed struct {
	set   []model.Assignment
	label string
}

func (f *fakeCommitter) Commit(_ context.Context, baseline []model.Assignment, label string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.batches = append(f.batches, committed{set: baseline, label: label})
	return fmt.Sprintf("v%d", len(f.batches)), nil
}

func TestCommitBaseline(t *testing.T) {
	fc := &fakeCommitter{}
	a, err := ingest.NewAdapter(fc, nil, nil)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	rows := []ingest.Row{
		{Vessel: "EVER", Berth: "3", Start: "2025-10-29 10:00", End: "2025-10-29 14:00"},
		{Vessel: "", Berth: "4", Start: "2025-10-29 10:00", End: "2025-10-29 14:00"},
	}
	id, rowErrs, err := a.CommitBaseline(context.Background(), rows, "morning scrape")
	if err != nil {
		t.Fatalf("commit baseline: %v", err)
	}
	if id != "v1" {
		t.Fatalf("id = %s", id)
	}
	if len(rowErrs) != 1 || rowErrs[0].Field != "vessel" {
		t.Fatalf("row errors: %v", rowErrs)
	}
	if len(fc.batches) != 1 || fc.batches[0].label != "morning scrape" {
		t.Fatalf("committer calls: %+v", fc.batches)
	}
	if len(fc.batches[0].set) != 1 || fc.batches[0].set[0].Vessel != "EVER" {
		t.Fatalf("committed set: %+v", fc.batches[0].set)
	}
}

func TestCommitBaselineRejectsEmptyBatch(t *testing.T) {
	fc := &fakeCommitter{}
	a, _ := ingest.NewAdapter(fc, nil, nil)
	rows := []ingest.Row{{Vessel: "", Berth: "4", Start: "x", End: "y"}}
	if _, _, err := a.CommitBaseline(context.Background(), rows, "empty"); err == nil {
		t.Fatal("batch with no valid rows accepted")
	}
	if len(fc.batches) != 0 {
		t.Fatal("empty batch reached the committer")
	}
}

func TestHandleFeedMessage(t *testing.T) {
	fc := &fakeCommitter{}
	a, _ := ingest.NewAdapter(fc, nil, nil)

	sub := mqtt.NewMockSubscriber()
	if err := sub.Subscribe("berths/ingest/rows", a.HandleFeedMessage); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payload, _ := json.Marshal(ingest.Batch{
		Label: "feed",
		Rows: []ingest.Row{
			{Vessel: "EVER", Berth: "3", Start: "2025-10-29 10:00", End: "2025-10-29 14:00"},
		},
	})
	sub.Inject("berths/ingest/rows", payload)
	if len(fc.batches) != 1 || fc.batches[0].label != "feed" {
		t.Fatalf("feed batch not committed: %+v", fc.batches)
	}

	// Malformed payloads are dropped without committing.
	sub.Inject("berths/ingest/rows", []byte("{not json"))
	if len(fc.batches) != 1 {
		t.Fatal("malformed payload reached the committer")
	}
}
