package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rfagundes/zapblast/internal/model"
)

// memCampaigns holds one campaign row.
type memCampaigns struct {
	camp *model.Campaign
}

func (m *memCampaigns) Get(_ context.Context, id string) (*model.Campaign, error) {
	if m.camp == nil || m.camp.ID != id {
		return nil, nil
	}
	c := *m.camp
	return &c, nil
}
func (m *memCampaigns) ListMessages(context.Context, string) ([]model.CampaignMessage, error) {
	return nil, nil
}
func (m *memCampaigns) MarkActive(_ context.Context, id string, total int) error {
	m.camp.Status = model.CampaignActive
	m.camp.TotalContacts = total
	return nil
}
func (m *memCampaigns) MarkCompleted(context.Context, string) error { return nil }
func (m *memCampaigns) SetStatus(_ context.Context, id string, to model.CampaignStatus, from ...model.CampaignStatus) (bool, error) {
	for _, f := range from {
		if m.camp.Status == f {
			m.camp.Status = to
			return true, nil
		}
	}
	return false, nil
}
func (m *memCampaigns) UpdateCounters(context.Context, string, model.Counters) error { return nil }

// memContacts serves a fixed eligible set.
type memContacts struct {
	eligible []model.Contact
}

func (m *memContacts) ListEligible(context.Context, string) ([]model.Contact, error) {
	return m.eligible, nil
}
func (m *memContacts) ListUnverified(context.Context, string) ([]model.Contact, error) {
	return nil, nil
}
func (m *memContacts) SetVerification(context.Context, string, bool, string, string) error {
	return nil
}

// memRows mimics the INSERT IGNORE semantics keyed on contact id.
type memRows struct {
	existing map[string]bool
	created  int64
}

func (m *memRows) CreateMissing(_ context.Context, _ string, contactIDs []string) (int64, error) {
	if m.existing == nil {
		m.existing = map[string]bool{}
	}
	var n int64
	for _, id := range contactIDs {
		if !m.existing[id] {
			m.existing[id] = true
			n++
		}
	}
	m.created += n
	return n, nil
}
func (m *memRows) ListPending(context.Context, string) ([]model.PendingSend, error) { return nil, nil }
func (m *memRows) CountPending(context.Context, string) (int, error)               { return 0, nil }
func (m *memRows) CountByStatus(context.Context, string) (map[model.ContactSendStatus]int, error) {
	return nil, nil
}
func (m *memRows) MarkSent(context.Context, string, string, string) error { return nil }
func (m *memRows) MarkFailed(context.Context, string, string) error       { return nil }
func (m *memRows) FindByGatewayMessageID(context.Context, string) (*model.CampaignContact, error) {
	return nil, nil
}
func (m *memRows) Advance(context.Context, string, model.ContactSendStatus) (bool, error) {
	return false, nil
}

// memOutbox records enqueued jobs.
type memOutbox struct {
	topics   []string
	payloads [][]byte
}

func (m *memOutbox) Insert(_ context.Context, _ *sqlx.Tx, _, _, topic string, payload []byte) error {
	m.topics = append(m.topics, topic)
	m.payloads = append(m.payloads, payload)
	return nil
}

func draftCampaign() *model.Campaign {
	return &model.Campaign{
		ID:         "c1",
		Name:       "promo",
		InstanceID: "i1",
		AudienceID: "a1",
		Status:     model.CampaignDraft,
	}
}

func contacts(ids ...string) []model.Contact {
	out := make([]model.Contact, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Contact{ID: id, AudienceID: "a1"})
	}
	return out
}

func TestStartActivatesAndEnqueues(t *testing.T) {
	campaigns := &memCampaigns{camp: draftCampaign()}
	rows := &memRows{}
	outbox := &memOutbox{}
	svc := New(campaigns, &memContacts{eligible: contacts("ct1", "ct2", "ct3")}, rows, outbox)

	total, err := svc.Start(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if campaigns.camp.Status != model.CampaignActive {
		t.Fatalf("status = %s, want active", campaigns.camp.Status)
	}
	if campaigns.camp.TotalContacts != 3 {
		t.Fatalf("total_contacts = %d, want 3", campaigns.camp.TotalContacts)
	}
	if rows.created != 3 {
		t.Fatalf("rows created = %d, want 3", rows.created)
	}
	if len(outbox.topics) != 1 || outbox.topics[0] != DispatchTopic {
		t.Fatalf("outbox topics = %v, want [%s]", outbox.topics, DispatchTopic)
	}
}

func TestStartTwiceCreatesRowsOnce(t *testing.T) {
	campaigns := &memCampaigns{camp: draftCampaign()}
	rows := &memRows{}
	svc := New(campaigns, &memContacts{eligible: contacts("ct1", "ct2")}, rows, &memOutbox{})

	if _, err := svc.Start(context.Background(), "c1"); err != nil {
		t.Fatalf("first start: %v", err)
	}

	// second start only works from paused; simulate the operator pausing
	campaigns.camp.Status = model.CampaignPaused
	if _, err := svc.Start(context.Background(), "c1"); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if rows.created != 2 {
		t.Fatalf("rows created across double start = %d, want 2", rows.created)
	}
}

func TestStartRejectsActiveCampaign(t *testing.T) {
	camp := draftCampaign()
	camp.Status = model.CampaignActive
	svc := New(&memCampaigns{camp: camp}, &memContacts{eligible: contacts("ct1")}, &memRows{}, &memOutbox{})

	if _, err := svc.Start(context.Background(), "c1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestStartRejectsTerminalStates(t *testing.T) {
	for _, st := range []model.CampaignStatus{model.CampaignCompleted, model.CampaignCancelled} {
		camp := draftCampaign()
		camp.Status = st
		svc := New(&memCampaigns{camp: camp}, &memContacts{eligible: contacts("ct1")}, &memRows{}, &memOutbox{})
		if _, err := svc.Start(context.Background(), "c1"); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("start from %s: err = %v, want ErrInvalidState", st, err)
		}
	}
}

func TestStartUnknownCampaign(t *testing.T) {
	svc := New(&memCampaigns{}, &memContacts{}, &memRows{}, &memOutbox{})
	if _, err := svc.Start(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStartNoEligibleContacts(t *testing.T) {
	campaigns := &memCampaigns{camp: draftCampaign()}
	outbox := &memOutbox{}
	svc := New(campaigns, &memContacts{}, &memRows{}, outbox)

	if _, err := svc.Start(context.Background(), "c1"); !errors.Is(err, ErrNoEligibleContacts) {
		t.Fatalf("err = %v, want ErrNoEligibleContacts", err)
	}
	if campaigns.camp.Status != model.CampaignDraft {
		t.Fatalf("campaign must stay draft, got %s", campaigns.camp.Status)
	}
	if len(outbox.topics) != 0 {
		t.Fatal("no job may be enqueued without eligible contacts")
	}
}

func TestPauseOnlyFromActive(t *testing.T) {
	camp := draftCampaign()
	camp.Status = model.CampaignActive
	campaigns := &memCampaigns{camp: camp}
	svc := New(campaigns, &memContacts{}, &memRows{}, &memOutbox{})

	if err := svc.Pause(context.Background(), "c1"); err != nil {
		t.Fatalf("pause active: %v", err)
	}
	if campaigns.camp.Status != model.CampaignPaused {
		t.Fatalf("status = %s, want paused", campaigns.camp.Status)
	}

	// pausing again is an invalid transition
	if err := svc.Pause(context.Background(), "c1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second pause: err = %v, want ErrInvalidState", err)
	}
}

func TestCancelFromNonTerminalStates(t *testing.T) {
	for _, st := range []model.CampaignStatus{model.CampaignDraft, model.CampaignActive, model.CampaignPaused} {
		camp := draftCampaign()
		camp.Status = st
		campaigns := &memCampaigns{camp: camp}
		svc := New(campaigns, &memContacts{}, &memRows{}, &memOutbox{})

		if err := svc.Cancel(context.Background(), "c1"); err != nil {
			t.Fatalf("cancel from %s: %v", st, err)
		}
		if campaigns.camp.Status != model.CampaignCancelled {
			t.Fatalf("status after cancel from %s = %s", st, campaigns.camp.Status)
		}
	}
}

func TestCancelCompletedRejected(t *testing.T) {
	camp := draftCampaign()
	camp.Status = model.CampaignCompleted
	svc := New(&memCampaigns{camp: camp}, &memContacts{}, &memRows{}, &memOutbox{})

	if err := svc.Cancel(context.Background(), "c1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}
