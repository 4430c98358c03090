// internal/vcard/vcard.go
//
// vCard conversion on top of emersion/go-vcard. CATEGORIES map onto list
// memberships; PRODID is folded into the contact's source tag.
package vcard

import (
	"io"
	"strings"

	govcard "github.com/emersion/go-vcard"

	"github.com/davencourt/mailliste-backend/internal/model"
)

// Decode reads every card in the stream. List names come back in the
// contact's Lists field.
func Decode(r io.Reader) ([]model.Contact, error) {
	dec := govcard.NewDecoder(r)

	var contacts []model.Contact
	for {
		card, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, cardToContact(card))
	}
	return contacts, nil
}

func cardToContact(card govcard.Card) model.Contact {
	c := model.Contact{
		UID:    strings.TrimPrefix(card.Value(govcard.FieldUID), "urn:uuid:"),
		Email:  card.Value(govcard.FieldEmail),
		Phone:  card.Value(govcard.FieldTelephone),
		Notes:  card.Value(govcard.FieldNote),
		Source: sourceFromProdID(card.Value("PRODID")),
	}

	// N is "Family;Given;Additional;Prefix;Suffix".
	if n := card.Value(govcard.FieldName); n != "" {
		parts := strings.Split(n, ";")
		c.LastName = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			c.FirstName = strings.TrimSpace(parts[1])
		}
	} else if fn := card.Value(govcard.FieldFormattedName); fn != "" {
		c.LastName = strings.TrimSpace(fn)
	}

	// ORG is "Company;Unit;..."; the company component is enough.
	if org := card.Value(govcard.FieldOrganization); org != "" {
		c.Organization = strings.TrimSpace(strings.SplitN(org, ";", 2)[0])
	}

	// ADR is "POBox;Extended;Street;Locality;Region;PostalCode;Country".
	if adr := card.Value(govcard.FieldAddress); adr != "" {
		parts := strings.Split(adr, ";")
		get := func(i int) string {
			if i < len(parts) {
				return strings.TrimSpace(parts[i])
			}
			return ""
		}
		c.Street2 = get(1)
		c.Street = get(2)
		c.City = get(3)
		c.Region = get(4)
		c.PostalCode = get(5)
		c.Country = get(6)
	}

	for _, v := range card.Values(govcard.FieldCategories) {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Lists = append(c.Lists, name)
			}
		}
	}
	return c
}

// sourceFromProdID recognizes the producers we see in the wild.
func sourceFromProdID(prodID string) string {
	p := strings.ToLower(prodID)
	switch {
	case p == "":
		return ""
	case strings.Contains(p, "apple"):
		return "apple"
	case strings.Contains(p, "google"):
		return "google"
	case strings.Contains(p, "microsoft") || strings.Contains(p, "outlook"):
		return "outlook"
	case strings.Contains(p, "thunderbird") || strings.Contains(p, "mozilla"):
		return "thunderbird"
	default:
		return "vcard"
	}
}

// Encode writes one card per contact. version is "3.0" or "4.0".
func Encode(w io.Writer, contacts []model.Contact, version string) error {
	enc := govcard.NewEncoder(w)
	for i := range contacts {
		card := contactToCard(&contacts[i])
		if version == "4.0" {
			govcard.ToV4(card)
		} else {
			card.SetValue(govcard.FieldVersion, "3.0")
		}
		if err := enc.Encode(card); err != nil {
			return err
		}
	}
	return nil
}

func contactToCard(c *model.Contact) govcard.Card {
	card := make(govcard.Card)

	fn := c.FullName()
	if fn == "" {
		fn = c.Email
	}
	card.SetValue(govcard.FieldFormattedName, fn)
	card.SetValue(govcard.FieldName, c.LastName+";"+c.FirstName+";;;")
	if c.UID != "" {
		card.SetValue(govcard.FieldUID, c.UID)
	}
	if c.Email != "" {
		card.AddValue(govcard.FieldEmail, c.Email)
	}
	if c.Phone != "" {
		card.AddValue(govcard.FieldTelephone, c.Phone)
	}
	if c.Organization != "" {
		card.SetValue(govcard.FieldOrganization, c.Organization)
	}
	if c.Street != "" || c.City != "" || c.PostalCode != "" || c.Country != "" {
		adr := strings.Join([]string{
			"", c.Street2, c.Street, c.City, c.Region, c.PostalCode, c.Country,
		}, ";")
		card.AddValue(govcard.FieldAddress, adr)
	}
	if c.Notes != "" {
		card.SetValue(govcard.FieldNote, c.Notes)
	}
	if len(c.Lists) > 0 {
		card.SetValue(govcard.FieldCategories, strings.Join(c.Lists, ","))
	}
	return card
}
