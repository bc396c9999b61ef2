package httpmsg

// Params is an ordered (name -> value) association list preserving
// first-occurrence semantics, used for both URI query parameters and
// application/x-www-form-urlencoded form fields (RFC 2616 §4.9 request
// body, decoded per RFC 1738).
type Params struct {
	names  []string
	values []string
}

// Add appends name/value, even if name already occurs; Count and the
// indexed accessors see every occurrence in arrival order.
func (p *Params) Add(name, value string) {
	p.names = append(p.names, name)
	p.values = append(p.values, value)
}

// Count returns the number of name/value pairs, counting duplicates.
func (p *Params) Count() int { return len(p.names) }

// NameAt returns the name at position i.
func (p *Params) NameAt(i int) string { return p.names[i] }

// ValueAt returns the value at position i.
func (p *Params) ValueAt(i int) string { return p.values[i] }

// ValueOf returns the value of the first occurrence of name, and whether it
// was found at all.
func (p *Params) ValueOf(name string) (string, bool) {
	for i, n := range p.names {
		if n == name {
			return p.values[i], true
		}
	}
	return "", false
}

// reset clears the association list for reuse while keeping the backing
// arrays' capacity.
func (p *Params) reset() {
	p.names = p.names[:0]
	p.values = p.values[:0]
}
