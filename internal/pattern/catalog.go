package pattern

// Catalog holds the built-in, user, and ephemeral pattern collections.
//
// Iteration order is built-in, then user, then ephemeral. Duplicate names
// or ids resolve to the first hit in that order.
//
// Catalog is not safe for concurrent use; Service guards it.
type Catalog struct {
	builtin   []*Pattern
	user      []*Pattern
	ephemeral []*Pattern

	byID   map[string][]*Pattern
	byName map[string][]*Pattern
}

// NewCatalog creates a catalog with the given built-in and user patterns.
// Built-ins are marked System and Locked.
func NewCatalog(builtin, user []*Pattern) *Catalog {
	c := &Catalog{}
	for _, p := range builtin {
		p.System = true
		p.Locked = true
		c.builtin = append(c.builtin, p)
	}
	c.user = append(c.user, user...)
	c.reindex()
	return c
}

func (c *Catalog) reindex() {
	c.byID = make(map[string][]*Pattern)
	c.byName = make(map[string][]*Pattern)
	for _, p := range c.All() {
		c.byID[p.ID] = append(c.byID[p.ID], p)
		c.byName[p.Name] = append(c.byName[p.Name], p)
	}
}

// All returns every pattern in iteration order.
func (c *Catalog) All() []*Pattern {
	all := make([]*Pattern, 0, len(c.builtin)+len(c.user)+len(c.ephemeral))
	all = append(all, c.builtin...)
	all = append(all, c.user...)
	return append(all, c.ephemeral...)
}

// User returns the user patterns, newest first.
func (c *Catalog) User() []*Pattern {
	return append([]*Pattern(nil), c.user...)
}

// FindByName returns the first pattern named name.
func (c *Catalog) FindByName(name string) *Pattern {
	return first(c.byName[name])
}

// FindByID returns the first pattern with the given id.
func (c *Catalog) FindByID(id string) *Pattern {
	return first(c.byID[id])
}

// FindAllByID returns every pattern with the given id, in iteration order.
func (c *Catalog) FindAllByID(id string) []*Pattern {
	return append([]*Pattern(nil), c.byID[id]...)
}

// IsBuiltin reports whether id belongs to a built-in pattern.
func (c *Catalog) IsBuiltin(id string) bool {
	for _, p := range c.byID[id] {
		if p.System {
			return true
		}
	}
	return false
}

// Contains reports whether p itself (not just its id) is in the catalog.
func (c *Catalog) Contains(p *Pattern) bool {
	for _, q := range c.byID[p.ID] {
		if q == p {
			return true
		}
	}
	return false
}

// Resolve finds a play or stop target: first by name, then by id, then by
// id among ephemeral patterns only.
func (c *Catalog) Resolve(token string) *Pattern {
	if p := c.FindByName(token); p != nil {
		return p
	}
	if p := c.FindByID(token); p != nil {
		return p
	}
	return findIn(c.ephemeral, token)
}

// UpsertUser inserts p at the front of the user list, or replaces the
// user pattern with the same id in place. It returns the replaced
// pattern, if any.
func (c *Catalog) UpsertUser(p *Pattern) (replaced *Pattern) {
	defer c.reindex()
	for i, q := range c.user {
		if q.ID == p.ID {
			c.user[i] = p
			return q
		}
	}
	c.user = append([]*Pattern{p}, c.user...)
	return nil
}

// DeleteUser removes the user pattern with the given id and returns it.
// Built-ins are never removed.
func (c *Catalog) DeleteUser(id string) *Pattern {
	for i, p := range c.user {
		if p.ID == id {
			c.user = append(c.user[:i], c.user[i+1:]...)
			c.reindex()
			return p
		}
	}
	return nil
}

// AddEphemeral adds p to the ephemeral collection, replacing any ephemeral
// pattern with the same id. It returns the replaced pattern, if any.
func (c *Catalog) AddEphemeral(p *Pattern) (replaced *Pattern) {
	defer c.reindex()
	for i, q := range c.ephemeral {
		if q.ID == p.ID {
			c.ephemeral[i] = p
			return q
		}
	}
	c.ephemeral = append(c.ephemeral, p)
	return nil
}

// RemoveEphemeral removes p from the ephemeral collection.
func (c *Catalog) RemoveEphemeral(p *Pattern) {
	for i, q := range c.ephemeral {
		if q == p {
			c.ephemeral = append(c.ephemeral[:i], c.ephemeral[i+1:]...)
			c.reindex()
			return
		}
	}
}

// ClearEphemeral empties the ephemeral collection.
func (c *Catalog) ClearEphemeral() {
	c.ephemeral = nil
	c.reindex()
}

func first(ps []*Pattern) *Pattern {
	if len(ps) == 0 {
		return nil
	}
	return ps[0]
}

func findIn(ps []*Pattern, id string) *Pattern {
	for _, p := range ps {
		if p.ID == id {
			return p
		}
	}
	return nil
}
