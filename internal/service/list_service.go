// internal/service/list_service.go
package service

import (
	"strings"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

type ListService struct {
	ListRepo repository.ListRepositoryInterface
}

func (s *ListService) GetList(id int) (*model.List, error) {
	l, err := s.ListRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperrors.NewNotFound("list", id)
	}
	return l, nil
}

func (s *ListService) ListLists() ([]model.List, error) {
	return s.ListRepo.ListAll()
}

func (s *ListService) CreateList(name, description string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("list name is required")
	}
	if existing, err := s.ListRepo.GetByName(name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperrors.NewValidation("a list with that name already exists")
	}
	l := &model.List{Name: name, Description: description}
	if err := s.ListRepo.Create(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListService) UpdateList(id int, name, description string) (*model.List, error) {
	l, err := s.GetList(id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("list name is required")
	}
	l.Name = name
	l.Description = description
	if err := s.ListRepo.Update(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListService) DeleteList(id int) error {
	if _, err := s.GetList(id); err != nil {
		return err
	}
	inUse, err := s.ListRepo.InUseByCampaign(id)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.NewValidation("list is referenced by campaigns and cannot be deleted")
	}
	return s.ListRepo.Delete(id)
}
