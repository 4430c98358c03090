// internal/service/runner.go
package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/mailer"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

// CampaignRunner delivers one campaign's pending messages sequentially.
// It is driven by the worker consuming campaign_sends jobs.
type CampaignRunner struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	MessageRepo   repository.MessageRepositoryInterface
	ContactRepo   repository.ContactRepositoryInterface
	Unsubscribes  *UnsubscribeService
	Mailer        mailer.Mailer
	SenderEmail   string
	RatePerMinute int
	// ContentLanguage goes out on every message; defaults to "en".
	ContentLanguage string
	// Sleep is swapped for a recorder in tests.
	Sleep func(time.Duration)
}

func (r *CampaignRunner) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

// delay is the gap between consecutive sends: 60/rate seconds, so N
// messages per minute and M recipients take at least (M-1)*60/N seconds.
func (r *CampaignRunner) delay() time.Duration {
	rate := r.RatePerMinute
	if rate <= 0 {
		rate = 1
	}
	return time.Duration(float64(time.Minute) / float64(rate))
}

// Run processes every pending row of the campaign in enqueue order. A
// per-recipient failure marks that row error and moves on; a transport
// failure stops the loop with the remaining rows untouched. A transport
// failure before anything was ever sent marks the whole campaign failed.
func (r *CampaignRunner) Run(campaignID int) error {
	campaign, err := r.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}
	if campaign == nil {
		return apperrors.NewNotFound("campaign", campaignID)
	}

	pending, err := r.MessageRepo.ListPending(campaignID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return r.finish(campaign)
	}

	if err := r.Mailer.Ping(); err != nil {
		return r.transportFailed(campaign, err)
	}

	if campaign.Status != model.CampaignSending {
		if err := r.CampaignRepo.UpdateStatus(campaignID, model.CampaignSending); err != nil {
			return err
		}
		campaign.Status = model.CampaignSending
	}
	log.Printf("campaign %d: sending %d messages\n", campaignID, len(pending))

	for i := range pending {
		msg := &pending[i]

		contact, err := r.ContactRepo.GetByID(msg.ContactID)
		if err != nil {
			return err
		}
		if contact == nil {
			r.markError(msg.ID, "contact no longer exists")
			continue
		}
		// The ledger is consulted again right before the send: an opt-out
		// after enqueue must never get mail.
		if r.Unsubscribes.IsExcluded(contact) {
			r.markError(msg.ID, "unsubscribed after enqueue")
			continue
		}

		out := r.buildMessage(campaign, contact)
		err = r.Mailer.Send(out)

		var te *apperrors.TransportError
		if errors.As(err, &te) {
			return r.transportFailed(campaign, err)
		}
		if err != nil {
			log.Println("campaign", campaignID, ": contact", contact.ID, ":", err)
			r.markError(msg.ID, err.Error())
		} else {
			if err := r.MessageRepo.MarkSent(msg.ID, time.Now()); err != nil {
				return err
			}
		}

		if i < len(pending)-1 {
			r.sleep(r.delay())
		}
	}

	return r.finish(campaign)
}

func (r *CampaignRunner) buildMessage(campaign *model.Campaign, contact *model.Contact) *mailer.Outgoing {
	lang := r.ContentLanguage
	if lang == "" {
		lang = "en"
	}
	out := &mailer.Outgoing{
		To:              contact.Email,
		ToName:          contact.FullName(),
		Subject:         RenderTemplate(campaign.Subject, PlaceholderMap(contact), false),
		Body:            RenderForContact(campaign.Body, contact, campaign.Format),
		HTML:            campaign.Format == model.FormatHTML,
		ContentLanguage: lang,
		Attachments:     campaign.Attachments,
	}
	if campaign.IncludeUnsubscribe {
		out.UnsubscribeURL = r.Unsubscribes.URLFor(contact.UID)
	}
	return out
}

func (r *CampaignRunner) markError(messageID int, reason string) {
	if err := r.MessageRepo.MarkError(messageID, reason); err != nil {
		log.Println("mark error:", err)
	}
}

// transportFailed handles a connect/auth level error. Pending rows stay
// pending; the campaign is failed only when nothing was ever delivered.
func (r *CampaignRunner) transportFailed(campaign *model.Campaign, cause error) error {
	stats, err := r.CampaignRepo.GetStats(campaign.ID)
	if err != nil {
		return cause
	}
	if stats[model.MessageSent] == 0 {
		if err := r.CampaignRepo.UpdateStatus(campaign.ID, model.CampaignFailed); err != nil {
			log.Println("mark campaign failed:", err)
		}
	}
	return cause
}

// finish completes the campaign when no pending rows remain and, when
// requested, mails the sender a summary copy.
func (r *CampaignRunner) finish(campaign *model.Campaign) error {
	remaining, err := r.MessageRepo.CountPending(campaign.ID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	if campaign.Status != model.CampaignCompleted {
		if err := r.CampaignRepo.UpdateStatus(campaign.ID, model.CampaignCompleted); err != nil {
			return err
		}
	}
	log.Printf("campaign %d: completed\n", campaign.ID)

	if campaign.SenderCopy {
		if err := r.sendSenderCopy(campaign); err != nil {
			log.Println("sender copy:", err)
		}
	}
	return nil
}

func (r *CampaignRunner) sendSenderCopy(campaign *model.Campaign) error {
	stats, err := r.CampaignRepo.GetStats(campaign.ID)
	if err != nil {
		return err
	}

	if r.SenderEmail == "" {
		return nil
	}

	summary := fmt.Sprintf(
		"Campaign %q finished.\n\nTotal: %d\nSent: %d\nErrors: %d\n\n--- message as sent (unrendered tokens blank) ---\n\n%s\n",
		campaign.Name, stats["total"], stats[model.MessageSent], stats[model.MessageError],
		RenderForContact(campaign.Body, &model.Contact{}, campaign.Format))

	return r.Mailer.Send(&mailer.Outgoing{
		To:      r.SenderEmail,
		Subject: "Campaign completed: " + campaign.Name,
		Body:    summary,
	})
}
