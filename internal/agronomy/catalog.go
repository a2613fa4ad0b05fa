package agronomy

// Catalog is an immutable snapshot of SOP template rows. It preserves the
// order rows were loaded in, which defines the stable output order of the
// resolver for default-matched entries.
type Catalog struct {
	entries []Entry
	byID    map[uint]Entry
}

// NewCatalog builds a catalog snapshot from template rows. The slice is
// copied; later mutation of the argument does not affect the catalog.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries: make([]Entry, len(entries)),
		byID:    make(map[uint]Entry, len(entries)),
	}
	copy(c.entries, entries)
	for _, e := range c.entries {
		c.byID[e.ID] = e
	}
	return c
}

// ForWeek returns the template rows matching a crop, week offset and
// domain, in catalog order. An unknown crop yields an empty slice, not an
// error.
func (c *Catalog) ForWeek(cropCode string, weekOffset int, domain DomainKey) []Entry {
	var matched []Entry
	for _, e := range c.entries {
		if e.CropCode == cropCode && e.WeekOffset == weekOffset && e.Domain == domain {
			matched = append(matched, e)
		}
	}
	return matched
}

// ByID looks up a template row regardless of crop or week offset. Used by
// add-overrides, which may pull in entries whose native week offset
// differs from the current week.
func (c *Catalog) ByID(id uint) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Len returns the number of template rows in the snapshot.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of all template rows in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
