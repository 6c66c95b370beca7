package cms

import (
	"net/url"
	"strconv"
	"strings"
)

// Predicate is a single filter in the CMS query language, e.g. [at(document.type,"posts")].
type Predicate string

// At matches documents whose path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + "," + strconv.Quote(value) + ")]")
}

// Ordering sorts results by a single field.
type Ordering struct {
	Field string
	Desc  bool
}

// Asc orders by field ascending.
func Asc(field string) Ordering {
	return Ordering{Field: field}
}

// Desc orders by field descending.
func Desc(field string) Ordering {
	return Ordering{Field: field, Desc: true}
}

func (o Ordering) String() string {
	if o.Desc {
		return o.Field + " desc"
	}
	return o.Field
}

// Common document fields used in orderings and predicates.
const (
	FieldType                 = "document.type"
	FieldID                   = "document.id"
	FieldFirstPublicationDate = "document.first_publication_date"
)

// Query describes one documents/search request.
type Query struct {
	Predicates []Predicate
	Orderings  []Ordering
	PageSize   int
	Page       int
	// After restricts results to those following the document with this id
	// in the requested ordering.
	After string
	Fetch []string
	// Ref pins the content release; empty means the master ref.
	Ref string
}

func (q Query) values(ref string) url.Values {
	v := url.Values{}
	v.Set("ref", ref)
	if len(q.Predicates) > 0 {
		var b strings.Builder
		b.WriteByte('[')
		for _, p := range q.Predicates {
			b.WriteString(string(p))
		}
		b.WriteByte(']')
		v.Set("q", b.String())
	}
	if len(q.Orderings) > 0 {
		parts := make([]string, len(q.Orderings))
		for i, o := range q.Orderings {
			parts[i] = o.String()
		}
		v.Set("orderings", "["+strings.Join(parts, ",")+"]")
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.After != "" {
		v.Set("after", q.After)
	}
	if len(q.Fetch) > 0 {
		v.Set("fetch", strings.Join(q.Fetch, ","))
	}
	return v
}
