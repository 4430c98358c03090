// internal/service/contact_service.go
package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

type ContactService struct {
	ContactRepo repository.ContactRepositoryInterface
	ListRepo    repository.ListRepositoryInterface
}

type BulkActionResult struct {
	Action   string `json:"action"`
	Affected int    `json:"affected"`
	Skipped  int    `json:"skipped"`
}

func (s *ContactService) GetContact(id int) (*model.Contact, error) {
	c, err := s.ContactRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NewNotFound("contact", id)
	}
	return c, nil
}

func (s *ContactService) ListContacts(listID int, search string) ([]model.Contact, error) {
	return s.ContactRepo.List(listID, search)
}

func (s *ContactService) CreateContact(c *model.Contact, listNames []string) (*model.Contact, error) {
	if err := validateContact(c); err != nil {
		return nil, err
	}
	if err := s.ContactRepo.Create(c); err != nil {
		return nil, err
	}
	if err := s.setListsByName(c, listNames); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) UpdateContact(id int, c *model.Contact, listNames []string) (*model.Contact, error) {
	existing, err := s.ContactRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.NewNotFound("contact", id)
	}
	if err := validateContact(c); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.UID = existing.UID
	if err := s.ContactRepo.Update(c); err != nil {
		return nil, err
	}
	if listNames != nil {
		if err := s.setListsByName(c, listNames); err != nil {
			return nil, err
		}
	} else {
		c.Lists = existing.Lists
	}
	return c, nil
}

// DeleteContact removes a contact. Contacts referenced by campaign history
// cannot be hard-deleted: without force the call is refused; with force the
// personal fields are scrubbed and the row kept so message rows stay valid.
func (s *ContactService) DeleteContact(id int, force bool) error {
	c, err := s.ContactRepo.GetByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return apperrors.NewNotFound("contact", id)
	}

	has, err := s.ContactRepo.HasMessages(id)
	if err != nil {
		return err
	}
	if !has {
		return s.ContactRepo.Delete(id)
	}
	if !force {
		return apperrors.NewValidation("contact has campaign history; use force to scrub it")
	}

	scrubbed := &model.Contact{ID: c.ID, UID: c.UID, Notes: "scrubbed"}
	if err := s.ContactRepo.Update(scrubbed); err != nil {
		return err
	}
	if err := s.ContactRepo.SetListMembership(id, nil); err != nil {
		return err
	}
	now := time.Now()
	return s.ContactRepo.SetUnsubscribed(id, true, &now)
}

// BulkAction applies add_to_list, remove_from_list or delete to a set of
// contact IDs. Delete skips contacts with campaign history.
func (s *ContactService) BulkAction(action string, contactIDs []int, listID int) (*BulkActionResult, error) {
	if len(contactIDs) == 0 {
		return nil, apperrors.NewValidation("no contacts selected")
	}
	result := &BulkActionResult{Action: action}

	switch action {
	case "add_to_list":
		if err := s.requireList(listID); err != nil {
			return nil, err
		}
		if err := s.ContactRepo.AddToList(contactIDs, listID); err != nil {
			return nil, err
		}
		result.Affected = len(contactIDs)
	case "remove_from_list":
		if err := s.requireList(listID); err != nil {
			return nil, err
		}
		if err := s.ContactRepo.RemoveFromList(contactIDs, listID); err != nil {
			return nil, err
		}
		result.Affected = len(contactIDs)
	case "delete":
		for _, id := range contactIDs {
			has, err := s.ContactRepo.HasMessages(id)
			if err != nil {
				return nil, err
			}
			if has {
				result.Skipped++
				continue
			}
			if err := s.ContactRepo.Delete(id); err != nil {
				log.Println("bulk delete: contact", id, ":", err)
				result.Skipped++
				continue
			}
			result.Affected++
		}
	default:
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown bulk action %q", action))
	}
	return result, nil
}

func (s *ContactService) requireList(listID int) error {
	l, err := s.ListRepo.GetByID(listID)
	if err != nil {
		return err
	}
	if l == nil {
		return apperrors.NewNotFound("list", listID)
	}
	return nil
}

func (s *ContactService) setListsByName(c *model.Contact, names []string) error {
	ids := make([]int, 0, len(names))
	clean := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		l, err := s.ListRepo.GetOrCreateByName(name)
		if err != nil {
			return err
		}
		ids = append(ids, l.ID)
		clean = append(clean, l.Name)
	}
	if err := s.ContactRepo.SetListMembership(c.ID, ids); err != nil {
		return err
	}
	c.Lists = clean
	return nil
}

func validateContact(c *model.Contact) error {
	if strings.TrimSpace(c.Email) == "" &&
		strings.TrimSpace(c.FirstName) == "" &&
		strings.TrimSpace(c.LastName) == "" {
		return apperrors.NewValidation("contact needs at least a name or an email")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return apperrors.NewValidation("invalid email address")
	}
	return nil
}
