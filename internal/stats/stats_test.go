package stats

import (
	"context"
	"testing"

	"github.com/rfagundes/zapblast/internal/model"
)

func TestComputeCumulativeCounters(t *testing.T) {
	got := Compute(map[model.ContactSendStatus]int{
		model.SendPending:   4,
		model.SendSent:      3,
		model.SendDelivered: 2,
		model.SendRead:      1,
		model.SendFailed:    5,
	})

	want := model.Counters{Sent: 6, Delivered: 3, Read: 1, Failed: 5}
	if got != want {
		t.Fatalf("Compute = %+v, want %+v", got, want)
	}
}

func TestComputeEmpty(t *testing.T) {
	if got := Compute(nil); got != (model.Counters{}) {
		t.Fatalf("Compute(nil) = %+v, want zero counters", got)
	}
}

func TestComputeAllRead(t *testing.T) {
	// a fully read campaign counts everything in every pipeline stage
	got := Compute(map[model.ContactSendStatus]int{model.SendRead: 7})
	want := model.Counters{Sent: 7, Delivered: 7, Read: 7}
	if got != want {
		t.Fatalf("Compute = %+v, want %+v", got, want)
	}
}

// campaignsStub records UpdateCounters calls; everything else is unused.
type campaignsStub struct {
	updated map[string]model.Counters
}

func (s *campaignsStub) Get(context.Context, string) (*model.Campaign, error) { return nil, nil }
func (s *campaignsStub) ListMessages(context.Context, string) ([]model.CampaignMessage, error) {
	return nil, nil
}
func (s *campaignsStub) MarkActive(context.Context, string, int) error { return nil }
func (s *campaignsStub) MarkCompleted(context.Context, string) error   { return nil }
func (s *campaignsStub) SetStatus(context.Context, string, model.CampaignStatus, ...model.CampaignStatus) (bool, error) {
	return false, nil
}
func (s *campaignsStub) UpdateCounters(_ context.Context, id string, c model.Counters) error {
	if s.updated == nil {
		s.updated = map[string]model.Counters{}
	}
	s.updated[id] = c
	return nil
}

// rowsStub serves a fixed status histogram.
type rowsStub struct {
	byStatus map[model.ContactSendStatus]int
}

func (s *rowsStub) CreateMissing(context.Context, string, []string) (int64, error) { return 0, nil }
func (s *rowsStub) ListPending(context.Context, string) ([]model.PendingSend, error) {
	return nil, nil
}
func (s *rowsStub) CountPending(context.Context, string) (int, error) { return 0, nil }
func (s *rowsStub) CountByStatus(context.Context, string) (map[model.ContactSendStatus]int, error) {
	return s.byStatus, nil
}
func (s *rowsStub) MarkSent(context.Context, string, string, string) error { return nil }
func (s *rowsStub) MarkFailed(context.Context, string, string) error       { return nil }
func (s *rowsStub) FindByGatewayMessageID(context.Context, string) (*model.CampaignContact, error) {
	return nil, nil
}
func (s *rowsStub) Advance(context.Context, string, model.ContactSendStatus) (bool, error) {
	return false, nil
}

func TestRecomputeWritesBack(t *testing.T) {
	campaigns := &campaignsStub{}
	rows := &rowsStub{byStatus: map[model.ContactSendStatus]int{
		model.SendSent:   2,
		model.SendFailed: 1,
	}}

	svc := NewService(campaigns, rows)
	if err := svc.Recompute(context.Background(), "c1"); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	want := model.Counters{Sent: 2, Failed: 1}
	if campaigns.updated["c1"] != want {
		t.Fatalf("written counters = %+v, want %+v", campaigns.updated["c1"], want)
	}
}
