// internal/service/import_service.go
package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
	"github.com/davencourt/mailliste-backend/internal/vcard"
)

// ExportColumns is the fixed delimited-export column order. Imports accept
// these headers plus the legacy aliases handled by canonicalHeader.
var ExportColumns = []string{
	"UID", "Last Name", "First Name", "Email", "Phone", "Organization",
	"Street", "Street2", "City", "Postal Code", "Region", "Country",
	"Source", "Notes", "Lists",
}

type ImportService struct {
	ContactRepo repository.ContactRepositoryInterface
	ListRepo    repository.ListRepositoryInterface
}

type ImportOptions struct {
	// MergeLists adds imported list memberships to existing ones instead
	// of replacing them.
	MergeLists bool
	// Source tags contacts created by this import.
	Source string
}

type ImportResult struct {
	Created       int      `json:"created"`
	Updated       int      `json:"updated"`
	NoEmail       int      `json:"no_email"`
	Ambiguous     int      `json:"ambiguous"`
	AmbiguousRows []string `json:"ambiguous_rows,omitempty"`
}

// ParseDelimited reads a TSV or CSV export into contacts. The delimiter is
// detected from the header line: a tab anywhere in it wins, otherwise
// comma. List names come back in the Lists field.
func ParseDelimited(r io.Reader) ([]model.Contact, error) {
	br := newPeekReader(r)
	header, err := br.peekLine()
	if err != nil {
		return nil, apperrors.NewValidation("import file is empty")
	}

	comma := ','
	if strings.Contains(header, "\t") {
		comma = '\t'
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if err != nil {
		return nil, apperrors.NewValidation("cannot read import header: " + err.Error())
	}
	cols := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = canonicalHeader(h)
	}

	var contacts []model.Contact
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Println("import: bad row at line", line, ":", err)
			continue
		}
		contacts = append(contacts, rowToContact(cols, record))
	}
	return contacts, nil
}

// ImportDelimited parses a TSV/CSV file and upserts every row.
func (s *ImportService) ImportDelimited(r io.Reader, opts ImportOptions) (*ImportResult, error) {
	contacts, err := ParseDelimited(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i := range contacts {
		c := &contacts[i]
		lists := c.Lists
		c.Lists = nil
		if c.Source == "" {
			c.Source = opts.Source
		}
		if err := s.upsert(c, lists, opts.MergeLists, result, fmt.Sprintf("row %d", i+1)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ImportVCard reads a .vcf file; CATEGORIES become list memberships.
func (s *ImportService) ImportVCard(r io.Reader, opts ImportOptions) (*ImportResult, error) {
	contacts, err := vcard.Decode(r)
	if err != nil {
		return nil, apperrors.NewValidation("cannot parse vCard file: " + err.Error())
	}

	result := &ImportResult{}
	for i := range contacts {
		c := &contacts[i]
		lists := c.Lists
		c.Lists = nil
		if c.Source == "" {
			c.Source = opts.Source
		}
		if err := s.upsert(c, lists, opts.MergeLists, result, fmt.Sprintf("card %d", i+1)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// upsert applies one incoming record: match by uid first, then by the
// (email, last name, first name) triple. More than one triple hit is
// ambiguous and skipped. Rows without an email are counted and skipped.
func (s *ImportService) upsert(c *model.Contact, lists []string, merge bool, result *ImportResult, where string) error {
	var existing *model.Contact

	if c.UID != "" {
		found, err := s.ContactRepo.GetByUID(c.UID)
		if err != nil {
			return err
		}
		existing = found
	}

	if existing == nil {
		if strings.TrimSpace(c.Email) == "" {
			result.NoEmail++
			return nil
		}
		matches, err := s.ContactRepo.FindByEmailName(c.Email, c.LastName, c.FirstName)
		if err != nil {
			return err
		}
		if len(matches) > 1 {
			result.Ambiguous++
			result.AmbiguousRows = append(result.AmbiguousRows,
				fmt.Sprintf("%s: %q <%s> matches %d contacts", where, c.FullName(), c.Email, len(matches)))
			return nil
		}
		if len(matches) == 1 {
			existing = matches[0]
		}
	}

	if existing == nil {
		if err := s.ContactRepo.Create(c); err != nil {
			return err
		}
		result.Created++
		return s.applyLists(c.ID, lists, nil)
	}

	overwriteNonEmpty(existing, c)
	if err := s.ContactRepo.Update(existing); err != nil {
		return err
	}
	result.Updated++

	keep := []string(nil)
	if merge {
		keep = existing.Lists
	}
	return s.applyLists(existing.ID, lists, keep)
}

// applyLists sets a contact's memberships to the union of lists and keep,
// creating lists that don't exist yet.
func (s *ImportService) applyLists(contactID int, lists, keep []string) error {
	if len(lists) == 0 && keep == nil {
		return nil
	}
	seen := map[string]bool{}
	ids := []int{}
	for _, name := range append(append([]string{}, keep...), lists...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		l, err := s.ListRepo.GetOrCreateByName(name)
		if err != nil {
			return err
		}
		ids = append(ids, l.ID)
	}
	return s.ContactRepo.SetListMembership(contactID, ids)
}

// overwriteNonEmpty copies incoming fields onto dst, leaving dst values in
// place where the import row is blank.
func overwriteNonEmpty(dst, src *model.Contact) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.FirstName, src.FirstName)
	set(&dst.LastName, src.LastName)
	set(&dst.Email, src.Email)
	set(&dst.Phone, src.Phone)
	set(&dst.Organization, src.Organization)
	set(&dst.Street, src.Street)
	set(&dst.Street2, src.Street2)
	set(&dst.City, src.City)
	set(&dst.PostalCode, src.PostalCode)
	set(&dst.Region, src.Region)
	set(&dst.Country, src.Country)
	set(&dst.Source, src.Source)
	set(&dst.Notes, src.Notes)
}

// rowToContact maps a parsed record onto a contact using the canonical
// column names. Unknown columns are ignored.
func rowToContact(cols, record []string) model.Contact {
	c := model.Contact{}
	for i, col := range cols {
		if i >= len(record) {
			break
		}
		val := strings.TrimSpace(record[i])
		if val == "" {
			continue
		}
		switch col {
		case "uid":
			c.UID = val
		case "last_name":
			c.LastName = val
		case "first_name":
			c.FirstName = val
		case "name":
			// Legacy "Last, First" single column.
			last, first, _ := strings.Cut(val, ",")
			c.LastName = strings.TrimSpace(last)
			if c.FirstName == "" {
				c.FirstName = strings.TrimSpace(first)
			}
		case "email":
			if c.Email == "" {
				c.Email = firstValue(val)
			}
		case "phone":
			if c.Phone == "" {
				c.Phone = firstValue(val)
			}
		case "organization":
			c.Organization = val
		case "street":
			c.Street = val
		case "street2":
			c.Street2 = val
		case "city":
			c.City = val
		case "postal_code":
			c.PostalCode = val
		case "region":
			c.Region = val
		case "country":
			c.Country = val
		case "source":
			c.Source = val
		case "notes":
			c.Notes = val
		case "lists":
			c.Lists = append(c.Lists, splitListNames(val)...)
		}
	}
	return c
}

// canonicalHeader folds the accepted header spellings onto internal names.
// The vCard converter historically emitted typed columns (Email_INTERNET,
// Tel_CELL) and "Categories" instead of "Lists"; those still import.
func canonicalHeader(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	switch {
	case key == "categories":
		return "lists"
	case key == "e_mail" || key == "email" || strings.HasPrefix(key, "email_") || strings.HasPrefix(key, "e_mail_"):
		return "email"
	case key == "phone" || key == "tel" || strings.HasPrefix(key, "phone_") || strings.HasPrefix(key, "tel_"):
		return "phone"
	case key == "org" || key == "organisation":
		return "organization"
	case key == "zip" || key == "zip_code":
		return "postal_code"
	case key == "state":
		return "region"
	}
	return key
}

// firstValue resolves the converter's " | " multi-value join: first wins.
func firstValue(v string) string {
	first, _, _ := strings.Cut(v, " | ")
	return strings.TrimSpace(first)
}

func splitListNames(v string) []string {
	v = strings.ReplaceAll(v, " | ", ",")
	v = strings.ReplaceAll(v, ";", ",")
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WriteDelimited writes contacts in the fixed column order. comma is '\t'
// for TSV, ',' for CSV.
func WriteDelimited(w io.Writer, contacts []model.Contact, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for i := range contacts {
		c := &contacts[i]
		row := []string{
			c.UID, c.LastName, c.FirstName, c.Email, c.Phone, c.Organization,
			c.Street, c.Street2, c.City, c.PostalCode, c.Region, c.Country,
			c.Source, c.Notes, strings.Join(c.Lists, ", "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportDelimited writes the contact store (listID 0 means everyone).
func (s *ImportService) ExportDelimited(w io.Writer, listID int, comma rune) error {
	contacts, err := s.ContactRepo.List(listID, "")
	if err != nil {
		return err
	}
	return WriteDelimited(w, contacts, comma)
}

// ExportVCard writes contacts as vCards; list memberships become CATEGORIES.
func (s *ImportService) ExportVCard(w io.Writer, listID int, version string) error {
	contacts, err := s.ContactRepo.List(listID, "")
	if err != nil {
		return err
	}
	return vcard.Encode(w, contacts, version)
}

// peekReader lets the importer look at the header line for delimiter
// detection without consuming it.
type peekReader struct {
	r   io.Reader
	buf []byte
}

func newPeekReader(r io.Reader) *peekReader {
	return &peekReader{r: r}
}

func (p *peekReader) peekLine() (string, error) {
	tmp := make([]byte, 4096)
	for !strings.ContainsRune(string(p.buf), '\n') {
		n, err := p.r.Read(tmp)
		p.buf = append(p.buf, tmp[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if n == 0 {
			break
		}
	}
	if len(p.buf) == 0 {
		return "", io.EOF
	}
	line, _, _ := strings.Cut(string(p.buf), "\n")
	return line, nil
}

func (p *peekReader) Read(b []byte) (int, error) {
	if len(p.buf) > 0 {
		n := copy(b, p.buf)
		p.buf = p.buf[n:]
		return n, nil
	}
	return p.r.Read(b)
}
