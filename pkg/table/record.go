package table

// Field is a named cell of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered mapping of field names to values.
type Record struct {
	fields []Field
}

// NewRecord builds a record from name/value pairs in order.
func NewRecord(fields ...Field) Record {
	r := Record{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Get returns the value of name and whether the field exists.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces an existing field in place or appends a new one.
func (r *Record) Set(name string, v Value) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = v
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r Record) Fields() []Field {
	cp := make([]Field, len(r.fields))
	copy(cp, r.fields)
	return cp
}

func (r Record) Len() int { return len(r.fields) }

// Clone returns a record that shares no storage with r.
func (r Record) Clone() Record {
	return Record{fields: r.Fields()}
}
