package correlator

import (
	"context"
	"testing"

	"github.com/rfagundes/zapblast/internal/config"
	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/stats"
)

// memStore fakes both row and campaign persistence so receipt application
// and the counter write-back can be asserted together.
type memStore struct {
	rows     map[string]*model.CampaignContact // by gateway message id
	counters map[string]model.Counters
}

func newMemStore() *memStore {
	return &memStore{
		rows:     map[string]*model.CampaignContact{},
		counters: map[string]model.Counters{},
	}
}

func (m *memStore) addRow(gwID string, status model.ContactSendStatus) *model.CampaignContact {
	row := &model.CampaignContact{ID: "row-" + gwID, CampaignID: "c1", Status: status}
	m.rows[gwID] = row
	return row
}

// CampaignContactsRepository

func (m *memStore) CreateMissing(context.Context, string, []string) (int64, error) { return 0, nil }
func (m *memStore) ListPending(context.Context, string) ([]model.PendingSend, error) {
	return nil, nil
}
func (m *memStore) CountPending(context.Context, string) (int, error) { return 0, nil }
func (m *memStore) CountByStatus(context.Context, string) (map[model.ContactSendStatus]int, error) {
	out := map[model.ContactSendStatus]int{}
	for _, r := range m.rows {
		out[r.Status]++
	}
	return out, nil
}
func (m *memStore) MarkSent(context.Context, string, string, string) error { return nil }
func (m *memStore) MarkFailed(context.Context, string, string) error       { return nil }
func (m *memStore) FindByGatewayMessageID(_ context.Context, gwID string) (*model.CampaignContact, error) {
	r, ok := m.rows[gwID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}
func (m *memStore) Advance(_ context.Context, id string, to model.ContactSendStatus) (bool, error) {
	for _, r := range m.rows {
		if r.ID == id && r.Status.CanAdvanceTo(to) {
			r.Status = to
			return true, nil
		}
	}
	return false, nil
}

// CampaignsRepository

func (m *memStore) Get(context.Context, string) (*model.Campaign, error) { return nil, nil }
func (m *memStore) ListMessages(context.Context, string) ([]model.CampaignMessage, error) {
	return nil, nil
}
func (m *memStore) MarkActive(context.Context, string, int) error { return nil }
func (m *memStore) MarkCompleted(context.Context, string) error   { return nil }
func (m *memStore) SetStatus(context.Context, string, model.CampaignStatus, ...model.CampaignStatus) (bool, error) {
	return false, nil
}
func (m *memStore) UpdateCounters(_ context.Context, id string, c model.Counters) error {
	m.counters[id] = c
	return nil
}

var testCodes = config.StatusCodes{Delivered: 3, Read: 4}

func newCorrelator(store *memStore) *Correlator {
	return New(store, stats.NewService(store, store), testCodes)
}

func TestApplyStatusDelivered(t *testing.T) {
	store := newMemStore()
	row := store.addRow("gw1", model.SendSent)

	if err := newCorrelator(store).ApplyStatus(context.Background(), "gw1", 3); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if row.Status != model.SendDelivered {
		t.Fatalf("status = %s, want delivered", row.Status)
	}
	if store.counters["c1"].Delivered != 1 {
		t.Fatalf("counters not recomputed: %+v", store.counters["c1"])
	}
}

func TestApplyStatusRead(t *testing.T) {
	store := newMemStore()
	row := store.addRow("gw1", model.SendDelivered)

	if err := newCorrelator(store).ApplyStatus(context.Background(), "gw1", 4); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if row.Status != model.SendRead {
		t.Fatalf("status = %s, want read", row.Status)
	}
}

func TestApplyStatusStaleDeliveredAfterRead(t *testing.T) {
	store := newMemStore()
	row := store.addRow("gw1", model.SendRead)

	if err := newCorrelator(store).ApplyStatus(context.Background(), "gw1", 3); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if row.Status != model.SendRead {
		t.Fatalf("stale delivered receipt moved row to %s", row.Status)
	}
	if len(store.counters) != 0 {
		t.Fatal("no counter recompute may run for an ignored receipt")
	}
}

func TestApplyStatusSkipsReceiptForRead(t *testing.T) {
	// delivered receipt may skip the sent stage entirely
	store := newMemStore()
	row := store.addRow("gw1", model.SendPending)

	if err := newCorrelator(store).ApplyStatus(context.Background(), "gw1", 4); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if row.Status != model.SendRead {
		t.Fatalf("status = %s, want read", row.Status)
	}
}

func TestApplyStatusUnknownMessageNoop(t *testing.T) {
	store := newMemStore()
	if err := newCorrelator(store).ApplyStatus(context.Background(), "missing", 3); err != nil {
		t.Fatalf("unknown gateway message id must be a no-op, got %v", err)
	}
}

func TestApplyStatusUnknownCodeNoop(t *testing.T) {
	store := newMemStore()
	row := store.addRow("gw1", model.SendSent)

	if err := newCorrelator(store).ApplyStatus(context.Background(), "gw1", 99); err != nil {
		t.Fatalf("unknown code must be a no-op, got %v", err)
	}
	if row.Status != model.SendSent {
		t.Fatalf("unknown code moved row to %s", row.Status)
	}
}

func TestApplyStatusFailedRowNeverResurrected(t *testing.T) {
	store := newMemStore()
	row := store.addRow("gw1", model.SendFailed)

	if err := newCorrelator(store).ApplyStatus(context.Background(), "gw1", 3); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if row.Status != model.SendFailed {
		t.Fatalf("failed row moved to %s", row.Status)
	}
}

func TestApplySendAck(t *testing.T) {
	store := newMemStore()
	row := store.addRow("gw1", model.SendPending)

	if err := newCorrelator(store).ApplySendAck(context.Background(), "gw1"); err != nil {
		t.Fatalf("ApplySendAck: %v", err)
	}
	if row.Status != model.SendSent {
		t.Fatalf("status = %s, want sent", row.Status)
	}
}

func TestApplySendAckAfterDeliveredIgnored(t *testing.T) {
	// a late SEND_MESSAGE ack must not regress a delivered row
	store := newMemStore()
	row := store.addRow("gw1", model.SendDelivered)

	if err := newCorrelator(store).ApplySendAck(context.Background(), "gw1"); err != nil {
		t.Fatalf("ApplySendAck: %v", err)
	}
	if row.Status != model.SendDelivered {
		t.Fatalf("late ack moved row to %s", row.Status)
	}
}

func TestApplyStatusEmptyIDNoop(t *testing.T) {
	store := newMemStore()
	if err := newCorrelator(store).ApplyStatus(context.Background(), "", 3); err != nil {
		t.Fatalf("empty id must be a no-op, got %v", err)
	}
}
