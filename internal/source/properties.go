package source

// Properties is an attribute table kept in memory, keyed by feature ID.
// Fields lists the column names in first-seen order.
type Properties struct {
	Fields []string
	seen   map[string]bool
	rows   map[uint32]map[string]string
}

func NewProperties() *Properties {
	return &Properties{seen: make(map[string]bool), rows: make(map[uint32]map[string]string)}
}

func (p *Properties) Set(id uint32, field, value string) {
	if !p.seen[field] {
		p.seen[field] = true
		p.Fields = append(p.Fields, field)
	}
	row := p.rows[id]
	if row == nil {
		row = make(map[string]string)
		p.rows[id] = row
	}
	row[field] = value
}

func (p *Properties) Value(id uint32, field string) (string, bool) {
	v, ok := p.rows[id][field]
	return v, ok
}

func (p *Properties) Len() int { return len(p.rows) }
