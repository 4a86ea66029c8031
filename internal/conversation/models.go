package conversation

import "time"

// Context is the per-user conversation record.
type Context struct {
	UserID          string
	UserName        string
	Location        *Location
	PreviousQueries []Query
	Pending         *Pending
	CreatedAt       time.Time
}

// Query is one entry of the conversation history.
type Query struct {
	Text      string
	Intent    string
	Timestamp time.Time
}

// Location is where the user says they are.
type Location struct {
	City     string
	RadiusKM int
}

// Pending marks a query waiting for the user to supply missing fields.
// Intent and Extracted carry the fields already known for the original query
// so the clarification reply can complete it.
type Pending struct {
	MissingFields []string
	OriginalQuery string
	Intent        string
	Extracted     map[string]string
}

func (c *Context) clone() Context {
	out := *c
	if c.Location != nil {
		loc := *c.Location
		out.Location = &loc
	}
	out.PreviousQueries = append([]Query(nil), c.PreviousQueries...)
	if c.Pending != nil {
		p := c.Pending.clone()
		out.Pending = &p
	}
	return out
}

func (p Pending) clone() Pending {
	out := p
	out.MissingFields = append([]string(nil), p.MissingFields...)
	if p.Extracted != nil {
		out.Extracted = make(map[string]string, len(p.Extracted))
		for k, v := range p.Extracted {
			out.Extracted[k] = v
		}
	}
	return out
}
