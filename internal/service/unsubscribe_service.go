// internal/service/unsubscribe_service.go
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

// UnsubscribeService is the opt-out ledger. Opting out is idempotent and
// reachable without a login through a token-protected URL; opting back in
// is an admin action only.
type UnsubscribeService struct {
	ContactRepo repository.ContactRepositoryInterface
	SecretKey   string
	BaseURL     string
}

// Token derives the per-contact unsubscribe token. It depends only on the
// secret key and the contact uid, so links stay valid across campaigns.
func (s *UnsubscribeService) Token(uid string) string {
	mac := hmac.New(sha256.New, []byte(s.SecretKey))
	mac.Write([]byte(uid))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *UnsubscribeService) VerifyToken(uid, token string) bool {
	return hmac.Equal([]byte(s.Token(uid)), []byte(token))
}

// URLFor builds the public confirmation URL embedded in campaign mail.
func (s *UnsubscribeService) URLFor(uid string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/unsubscribe/" + uid + "/" + s.Token(uid)
}

// Lookup resolves uid+token to a contact for the confirmation page. A bad
// token and an unknown uid are indistinguishable to the caller.
func (s *UnsubscribeService) Lookup(uid, token string) (*model.Contact, error) {
	if !s.VerifyToken(uid, token) {
		return nil, apperrors.NewNotFound("contact", uid)
	}
	c, err := s.ContactRepo.GetByUID(uid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NewNotFound("contact", uid)
	}
	return c, nil
}

// Unsubscribe records the opt-out. Calling it again is a no-op success.
func (s *UnsubscribeService) Unsubscribe(uid, token string) (*model.Contact, error) {
	c, err := s.Lookup(uid, token)
	if err != nil {
		return nil, err
	}
	if c.Unsubscribed {
		return c, nil
	}
	now := time.Now()
	if err := s.ContactRepo.SetUnsubscribed(c.ID, true, &now); err != nil {
		return nil, err
	}
	c.Unsubscribed = true
	c.UnsubscribedAt = &now
	return c, nil
}

// Resubscribe clears the opt-out. Admin-only; there is no public route to
// this on purpose.
func (s *UnsubscribeService) Resubscribe(contactID int) (*model.Contact, error) {
	c, err := s.ContactRepo.GetByID(contactID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NewNotFound("contact", contactID)
	}
	if err := s.ContactRepo.SetUnsubscribed(c.ID, false, nil); err != nil {
		return nil, err
	}
	c.Unsubscribed = false
	c.UnsubscribedAt = nil
	return c, nil
}

// IsExcluded is the predicate the campaign runner consults before every
// send.
func (s *UnsubscribeService) IsExcluded(c *model.Contact) bool {
	return c.Unsubscribed
}
