package service_test

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

// In-memory repositories backing the service tests.

type memStore struct {
	mu sync.Mutex

	contacts    map[int]*model.Contact
	nextContact int

	lists    map[int]*model.List
	nextList int

	// membership[listID] is a set of contact IDs.
	membership map[int]map[int]bool

	campaigns    map[int]*model.Campaign
	nextCampaign int

	messages    map[int]*model.Message
	nextMessage int
}

func newMemStore() *memStore {
	return &memStore{
		contacts:   map[int]*model.Contact{},
		lists:      map[int]*model.List{},
		membership: map[int]map[int]bool{},
		campaigns:  map[int]*model.Campaign{},
		messages:   map[int]*model.Message{},
	}
}

func (s *memStore) addContact(c model.Contact, listIDs ...int) *model.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *memStore) addList(name string) *model.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextList++
	l := &model.List{ID: s.nextList, Name: name}
	s.lists[l.ID] = l
	return l
}

func (s *memStore) listNamesFor(contactID int) []string {
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

// --- ContactRepositoryInterface ---

type memContactRepo struct{ s *memStore }

func (r *memContactRepo) GetByID(id int) (*model.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contacts[id]
	if !ok {
		return nil, nil
	}
	out := *c
	out.Lists = r.s.listNamesFor(id)
	return &out, nil
}

func (r *memContactRepo) GetByUID(uid string) (*model.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.contacts {
		if c.UID == uid {
			out := *c
			out.Lists = r.s.listNamesFor(id)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memContactRepo) FindByEmailName(email, lastName, firstName string) ([]*model.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Contact
	for _, c := range r.s.contacts {
		if c.Email == email && c.LastName == lastName && c.FirstName == firstName {
			cp := *c
			cp.Lists = r.s.listNamesFor(c.ID)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memContactRepo) List(listID int, search string) ([]model.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Contact
	for _, c := range r.s.contacts {
		if listID > 0 && !r.s.membership[listID][c.ID] {
			continue
		}
		if search != "" {
			hay := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Email + " " + c.Organization)
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

func (r *memContactRepo) ListByListID(listID int) ([]model.Contact, error) {
	return r.List(listID, "")
}

func (r *memContactRepo) Create(c *model.Contact) error {
	created := r.s.addContact(*c)
	*c = *created
	return nil
}

func (r *memContactRepo) Update(c *model.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
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

func (r *memContactRepo) Delete(id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.contacts, id)
	for _, members := range r.s.membership {
		delete(members, id)
	}
	return nil
}

func (r *memContactRepo) HasMessages(id int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ContactID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *memContactRepo) SetListMembership(contactID int, listIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
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

func (r *memContactRepo) AddToList(contactIDs []int, listID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
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

func (r *memContactRepo) RemoveFromList(contactIDs []int, listID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range contactIDs {
		delete(r.s.membership[listID], id)
	}
	return nil
}

func (r *memContactRepo) SetUnsubscribed(id int, unsubscribed bool, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contacts[id]
	if !ok {
		return fmt.Errorf("contact %d missing", id)
	}
	c.Unsubscribed = unsubscribed
	c.UnsubscribedAt = at
	return nil
}

// --- ListRepositoryInterface ---

type memListRepo struct {
	s          *memStore
	campaigned map[int]bool
}

func (r *memListRepo) GetByID(id int) (*model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok {
		return nil, nil
	}
	out := *l
	return &out, nil
}

func (r *memListRepo) GetByName(name string) (*model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lists {
		if l.Name == name {
			out := *l
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memListRepo) GetOrCreateByName(name string) (*model.List, error) {
	if l, _ := r.GetByName(name); l != nil {
		return l, nil
	}
	return r.s.addList(name), nil
}

func (r *memListRepo) ListAll() ([]model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.List
	for _, l := range r.s.lists {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memListRepo) Create(l *model.List) error {
	created := r.s.addList(l.Name)
	created.Description = l.Description
	*l = *created
	return nil
}

func (r *memListRepo) Update(l *model.List) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	r.s.lists[l.ID] = &cp
	return nil
}

func (r *memListRepo) Delete(id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.lists, id)
	delete(r.s.membership, id)
	return nil
}

func (r *memListRepo) InUseByCampaign(id int) (bool, error) {
	return r.campaigned[id], nil
}

// --- CampaignRepositoryInterface ---

type memCampaignRepo struct{ s *memStore }

func (r *memCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *memCampaignRepo) Create(c *model.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextCampaign++
	c.ID = r.s.nextCampaign
	c.CreatedAt = time.Now()
	cp := *c
	r.s.campaigns[c.ID] = &cp
	return nil
}

func (r *memCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
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

func (r *memCampaignRepo) UpdateStatus(id int, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %d missing", id)
	}
	c.Status = status
	return nil
}

func (r *memCampaignRepo) GetStats(campaignID int) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
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

// --- MessageRepositoryInterface ---

type memMessageRepo struct{ s *memStore }

func (r *memMessageRepo) Create(msg *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
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

func (r *memMessageRepo) GetByID(id int) (*model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (r *memMessageRepo) list(campaignID int, pendingOnly bool) []model.Message {
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

func (r *memMessageRepo) ListPending(campaignID int) ([]model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(campaignID, true), nil
}

func (r *memMessageRepo) ListByCampaign(campaignID int) ([]model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(campaignID, false), nil
}

func (r *memMessageRepo) CountPending(campaignID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.list(campaignID, true)), nil
}

func (r *memMessageRepo) MarkSent(id int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.s.messages[id]
	m.Status = model.MessageSent
	m.LastError = ""
	m.Attempts++
	m.SentAt = &at
	return nil
}

func (r *memMessageRepo) MarkError(id int, errText string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.s.messages[id]
	m.Status = model.MessageError
	m.LastError = errText
	m.Attempts++
	return nil
}

func (r *memMessageRepo) ResetErrors(campaignID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
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

var (
	_ repository.ContactRepositoryInterface  = (*memContactRepo)(nil)
	_ repository.ListRepositoryInterface     = (*memListRepo)(nil)
	_ repository.CampaignRepositoryInterface = (*memCampaignRepo)(nil)
	_ repository.MessageRepositoryInterface  = (*memMessageRepo)(nil)
)
