package controller_test

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davencourt/mailliste-backend/internal/mailer"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/queue"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

// In-memory repositories for the HTTP tests. Requests run sequentially
// against httptest recorders, so no locking is needed here.

type stubStore struct {
	contacts    map[int]*model.Contact
	nextContact int

	lists    map[int]*model.List
	nextList int

	membership map[int]map[int]bool

	campaigns    map[int]*model.Campaign
	nextCampaign int

	messages    map[int]*model.Message
	nextMessage int
}

func newStubStore() *stubStore {
	return &stubStore{
		contacts:   map[int]*model.Contact{},
		lists:      map[int]*model.List{},
		membership: map[int]map[int]bool{},
		campaigns:  map[int]*model.Campaign{},
		messages:   map[int]*model.Message{},
	}
}

func (s *stubStore) addContact(c model.Contact, listIDs ...int) *model.Contact {
	s.nextContact++
	c.ID = s.nextContact
	if c.UID == "" {
		c.UID = uuid.New().String()
	}
	s.contacts[c.ID] = &c
	for _, lid := range listIDs {
		if s.membership[lid] == nil {
			s.membership[lid] = map[int]bool{}
		}
		s.membership[lid][c.ID] = true
	}
	return &c
}

func (s *stubStore) addList(name string) *model.List {
	s.nextList++
	l := &model.List{ID: s.nextList, Name: name}
	s.lists[l.ID] = l
	return l
}

func (s *stubStore) listNamesFor(contactID int) []string {
	var names []string
	for lid, members := range s.membership {
		if members[contactID] {
			if l, ok := s.lists[lid]; ok {
				names = append(names, l.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

type stubContactRepo struct{ s *stubStore }

func (r *stubContactRepo) GetByID(id int) (*model.Contact, error) {
	c, ok := r.s.contacts[id]
	if !ok {
		return nil, nil
	}
	out := *c
	out.Lists = r.s.listNamesFor(id)
	return &out, nil
}

func (r *stubContactRepo) GetByUID(uid string) (*model.Contact, error) {
	for id, c := range r.s.contacts {
		if c.UID == uid {
			out := *c
			out.Lists = r.s.listNamesFor(id)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *stubContactRepo) FindByEmailName(email, lastName, firstName string) ([]*model.Contact, error) {
	var out []*model.Contact
	for _, c := range r.s.contacts {
		if c.Email == email && c.LastName == lastName && c.FirstName == firstName {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubContactRepo) List(listID int, search string) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range r.s.contacts {
		if listID > 0 && !r.s.membership[listID][c.ID] {
			continue
		}
		if search != "" {
			hay := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Email)
			if !strings.Contains(hay, strings.ToLower(search)) {
				continue
			}
		}
		cp := *c
		cp.Lists = r.s.listNamesFor(c.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubContactRepo) ListByListID(listID int) ([]model.Contact, error) {
	return r.List(listID, "")
}

func (r *stubContactRepo) Create(c *model.Contact) error {
	*c = *r.s.addContact(*c)
	return nil
}

func (r *stubContactRepo) Update(c *model.Contact) error {
	existing, ok := r.s.contacts[c.ID]
	if !ok {
		return fmt.Errorf("contact %d missing", c.ID)
	}
	cp := *c
	cp.UID = existing.UID
	cp.Unsubscribed = existing.Unsubscribed
	cp.UnsubscribedAt = existing.UnsubscribedAt
	r.s.contacts[c.ID] = &cp
	return nil
}

func (r *stubContactRepo) Delete(id int) error {
	delete(r.s.contacts, id)
	for _, members := range r.s.membership {
		delete(members, id)
	}
	return nil
}

func (r *stubContactRepo) HasMessages(id int) (bool, error) {
	for _, m := range r.s.messages {
		if m.ContactID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubContactRepo) SetListMembership(contactID int, listIDs []int) error {
	for _, members := range r.s.membership {
		delete(members, contactID)
	}
	for _, lid := range listIDs {
		if r.s.membership[lid] == nil {
			r.s.membership[lid] = map[int]bool{}
		}
		r.s.membership[lid][contactID] = true
	}
	return nil
}

func (r *stubContactRepo) AddToList(contactIDs []int, listID int) error {
	if r.s.membership[listID] == nil {
		r.s.membership[listID] = map[int]bool{}
	}
	for _, id := range contactIDs {
		if _, ok := r.s.contacts[id]; ok {
			r.s.membership[listID][id] = true
		}
	}
	return nil
}

func (r *stubContactRepo) RemoveFromList(contactIDs []int, listID int) error {
	for _, id := range contactIDs {
		delete(r.s.membership[listID], id)
	}
	return nil
}

func (r *stubContactRepo) SetUnsubscribed(id int, unsubscribed bool, at *time.Time) error {
	c, ok := r.s.contacts[id]
	if !ok {
		return fmt.Errorf("contact %d missing", id)
	}
	c.Unsubscribed = unsubscribed
	c.UnsubscribedAt = at
	return nil
}

type stubListRepo struct{ s *stubStore }

func (r *stubListRepo) GetByID(id int) (*model.List, error) {
	l, ok := r.s.lists[id]
	if !ok {
		return nil, nil
	}
	out := *l
	return &out, nil
}

func (r *stubListRepo) GetByName(name string) (*model.List, error) {
	for _, l := range r.s.lists {
		if l.Name == name {
			out := *l
			return &out, nil
		}
	}
	return nil, nil
}

func (r *stubListRepo) GetOrCreateByName(name string) (*model.List, error) {
	if l, _ := r.GetByName(name); l != nil {
		return l, nil
	}
	return r.s.addList(name), nil
}

func (r *stubListRepo) ListAll() ([]model.List, error) {
	var out []model.List
	for _, l := range r.s.lists {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubListRepo) Create(l *model.List) error {
	created := r.s.addList(l.Name)
	created.Description = l.Description
	*l = *created
	return nil
}

func (r *stubListRepo) Update(l *model.List) error {
	cp := *l
	r.s.lists[l.ID] = &cp
	return nil
}

func (r *stubListRepo) Delete(id int) error {
	delete(r.s.lists, id)
	delete(r.s.membership, id)
	return nil
}

func (r *stubListRepo) InUseByCampaign(id int) (bool, error) {
	for _, c := range r.s.campaigns {
		if c.ListID == id {
			return true, nil
		}
	}
	return false, nil
}

type stubCampaignRepo struct{ s *stubStore }

func (r *stubCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *stubCampaignRepo) Create(c *model.Campaign) error {
	r.s.nextCampaign++
	c.ID = r.s.nextCampaign
	c.CreatedAt = time.Now()
	cp := *c
	r.s.campaigns[c.ID] = &cp
	return nil
}

func (r *stubCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	var all []*model.Campaign
	for _, c := range r.s.campaigns {
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *stubCampaignRepo) UpdateStatus(id int, status string) error {
	c, ok := r.s.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %d missing", id)
	}
	c.Status = status
	return nil
}

func (r *stubCampaignRepo) GetStats(campaignID int) (map[string]int, error) {
	stats := map[string]int{"total": 0, "pending": 0, "sent": 0, "error": 0}
	for _, m := range r.s.messages {
		if m.CampaignID != campaignID {
			continue
		}
		stats[m.Status]++
		stats["total"]++
	}
	return stats, nil
}

type stubMessageRepo struct{ s *stubStore }

func (r *stubMessageRepo) Create(msg *model.Message) error {
	for _, m := range r.s.messages {
		if m.CampaignID == msg.CampaignID && m.ContactID == msg.ContactID {
			msg.ID = m.ID
			return nil
		}
	}
	r.s.nextMessage++
	msg.ID = r.s.nextMessage
	if msg.Status == "" {
		msg.Status = model.MessagePending
	}
	cp := *msg
	r.s.messages[msg.ID] = &cp
	return nil
}

func (r *stubMessageRepo) GetByID(id int) (*model.Message, error) {
	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (r *stubMessageRepo) list(campaignID int, pendingOnly bool) []model.Message {
	var out []model.Message
	for _, m := range r.s.messages {
		if m.CampaignID != campaignID {
			continue
		}
		if pendingOnly && m.Status != model.MessagePending {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubMessageRepo) ListPending(campaignID int) ([]model.Message, error) {
	return r.list(campaignID, true), nil
}

func (r *stubMessageRepo) ListByCampaign(campaignID int) ([]model.Message, error) {
	return r.list(campaignID, false), nil
}

func (r *stubMessageRepo) CountPending(campaignID int) (int, error) {
	return len(r.list(campaignID, true)), nil
}

func (r *stubMessageRepo) MarkSent(id int, at time.Time) error {
	m := r.s.messages[id]
	m.Status = model.MessageSent
	m.LastError = ""
	m.Attempts++
	m.SentAt = &at
	return nil
}

func (r *stubMessageRepo) MarkError(id int, errText string) error {
	m := r.s.messages[id]
	m.Status = model.MessageError
	m.LastError = errText
	m.Attempts++
	return nil
}

func (r *stubMessageRepo) ResetErrors(campaignID int) (int, error) {
	n := 0
	for _, m := range r.s.messages {
		if m.CampaignID == campaignID && m.Status == model.MessageError {
			m.Status = model.MessagePending
			m.LastError = ""
			n++
		}
	}
	return n, nil
}

type stubUserRepo struct{ user *model.User }

func (r *stubUserRepo) GetByUsername(username string) (*model.User, error) {
	if r.user != nil && r.user.Username == username {
		return r.user, nil
	}
	return nil, nil
}

func (r *stubUserRepo) Create(u *model.User) error { return nil }

// recQueue records published jobs instead of delivering them.
type recQueue struct {
	published []queue.CampaignJob
}

func (q *recQueue) Publish(topic string, payload any) error {
	q.published = append(q.published, payload.(queue.CampaignJob))
	return nil
}

func (q *recQueue) Subscribe(topic string, handler func(payload any) error) error {
	return nil
}

// stubMailer satisfies the SMTP test endpoint.
type stubMailer struct {
	pingErr error
}

func (m *stubMailer) Send(msg *mailer.Outgoing) error { return nil }
func (m *stubMailer) Ping() error                     { return m.pingErr }

var (
	_ repository.ContactRepositoryInterface  = (*stubContactRepo)(nil)
	_ repository.ListRepositoryInterface     = (*stubListRepo)(nil)
	_ repository.CampaignRepositoryInterface = (*stubCampaignRepo)(nil)
	_ repository.MessageRepositoryInterface  = (*stubMessageRepo)(nil)
	_ repository.UserRepositoryInterface     = (*stubUserRepo)(nil)
	_ queue.Queue                            = (*recQueue)(nil)
	_ mailer.Mailer                          = (*stubMailer)(nil)
)
