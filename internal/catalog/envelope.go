package catalog

import (
	"fmt"

	"github.com/Veraticus/frappe-till/internal/model"
)

// EnvelopeKind classifies a decoded backend response.
type EnvelopeKind int

const (
	// KindEmpty is a null, empty or "no result" response.
	KindEmpty EnvelopeKind = iota
	// KindRecord carries a record map.
	KindRecord
	// KindReference carries only an item identifier that needs a follow-up fetch.
	KindReference
	// KindUnexpected is a response of a shape the resolver does not understand.
	KindUnexpected
)

func (k EnvelopeKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindRecord:
		return "record"
	case KindReference:
		return "reference"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("EnvelopeKind(%d)", int(k))
	}
}

// Envelope is the unwrapped form of a backend response.
type Envelope struct {
	Record    model.RawRow
	Reference string
	Detail    string
	Kind      EnvelopeKind
}

// Unwrap inspects a decoded JSON value and extracts the record it carries.
// Shapes are tried in order: a bare record map, {message: map},
// {message: "id"}, {message: [...]}, {data: map}, {data: [map, ...]}, and a
// bare list of maps.
func Unwrap(raw any) Envelope {
	switch v := raw.(type) {
	case nil:
		return Envelope{Kind: KindEmpty}
	case model.RawRow:
		return unwrapMap(map[string]any(v))
	case map[string]any:
		return unwrapMap(v)
	case []any:
		return unwrapList(v, "list")
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return unwrapList(items, "list")
	default:
		return unexpected("top-level %T", raw)
	}
}

func unwrapMap(m map[string]any) Envelope {
	if len(m) == 0 {
		return Envelope{Kind: KindEmpty}
	}
	if looksLikeRecord(m) {
		return Envelope{Kind: KindRecord, Record: model.RawRow(m)}
	}

	if msg, ok := m["message"]; ok {
		switch v := msg.(type) {
		case nil:
			return Envelope{Kind: KindEmpty}
		case map[string]any:
			if len(v) == 0 {
				return Envelope{Kind: KindEmpty}
			}
			return Envelope{Kind: KindRecord, Record: model.RawRow(v)}
		case string:
			if ref := stringValue(v); ref != "" {
				return Envelope{Kind: KindReference, Reference: ref}
			}
			return Envelope{Kind: KindEmpty}
		case []any:
			return unwrapList(v, "message list")
		case bool:
			if !v {
				return Envelope{Kind: KindEmpty}
			}
			return unexpected("message is %T", msg)
		default:
			return unexpected("message is %T", msg)
		}
	}

	if data, ok := m["data"]; ok {
		switch v := data.(type) {
		case nil:
			return Envelope{Kind: KindEmpty}
		case map[string]any:
			if len(v) == 0 {
				return Envelope{Kind: KindEmpty}
			}
			return Envelope{Kind: KindRecord, Record: model.RawRow(v)}
		case []any:
			return unwrapList(v, "data list")
		default:
			return unexpected("data is %T", data)
		}
	}

	return unexpected("map without record fields")
}

func unwrapList(items []any, where string) Envelope {
	if len(items) == 0 {
		return Envelope{Kind: KindEmpty}
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return unexpected("%s element is %T", where, items[0])
	}
	if len(first) == 0 {
		return Envelope{Kind: KindEmpty}
	}
	return Envelope{Kind: KindRecord, Record: model.RawRow(first)}
}

func looksLikeRecord(m map[string]any) bool {
	for _, fields := range [][]string{identityFields, displayNameFields} {
		for _, f := range fields {
			if _, ok := m[f]; ok {
				return true
			}
		}
	}
	return false
}

func unexpected(format string, args ...any) Envelope {
	return Envelope{Kind: KindUnexpected, Detail: fmt.Sprintf(format, args...)}
}
