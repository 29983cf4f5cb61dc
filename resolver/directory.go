package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/derek2403/token2049/core"
)

// Directory is a read-only snapshot of the user's contacts.
type Directory struct {
	contacts []core.Contact
}

// NewDirectory creates a directory over the given contacts.
func NewDirectory(contacts []core.Contact) *Directory {
	cp := make([]core.Contact, len(contacts))
	copy(cp, contacts)
	return &Directory{contacts: cp}
}

// LoadDirectory reads a contact file. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read contacts %s", path)
	}

	var contacts []core.Contact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &contacts)
	default:
		err = json.Unmarshal(data, &contacts)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode contacts %s", path)
	}
	return NewDirectory(contacts), nil
}

// Contacts returns every contact in file order.
func (d *Directory) Contacts() []core.Contact {
	if d == nil {
		return nil
	}
	out := make([]core.Contact, len(d.contacts))
	copy(out, d.contacts)
	return out
}

// FindByName matches case-insensitively, exact names first and then
// names containing the query. The first match wins.
func (d *Directory) FindByName(name string) (core.Contact, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" || d == nil {
		return core.Contact{}, false
	}
	for _, c := range d.contacts {
		if strings.ToLower(c.Name) == q {
			return c, true
		}
	}
	for _, c := range d.contacts {
		if strings.Contains(strings.ToLower(c.Name), q) {
			return c, true
		}
	}
	return core.Contact{}, false
}

// FindByAddress matches a wallet address case-insensitively.
func (d *Directory) FindByAddress(addr string) (core.Contact, bool) {
	if d == nil {
		return core.Contact{}, false
	}
	for _, c := range d.contacts {
		if strings.EqualFold(c.Wallet, strings.TrimSpace(addr)) {
			return c, true
		}
	}
	return core.Contact{}, false
}

// Search returns the contacts whose name, phone or wallet contains query.
// An empty query returns every contact.
func (d *Directory) Search(query string) []core.Contact {
	if query == "" {
		return d.Contacts()
	}
	if d == nil {
		return nil
	}
	q := strings.ToLower(query)
	var out []core.Contact
	for _, c := range d.contacts {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(c.Phone, query) ||
			strings.Contains(strings.ToLower(c.Wallet), q) {
			out = append(out, c)
		}
	}
	return out
}
