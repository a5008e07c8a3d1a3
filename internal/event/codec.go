package event

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Codec serializes payloads crossing the bridge.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// CamelCodec encodes payloads as JSON with camelCase struct field names.
//
// Field names that start with an upper-case letter are rewritten: the first
// word is lower-cased and later words keep a single leading capital, so
// CustomerID becomes customerId and URL becomes url. Names set explicitly
// in lower case through struct tags are left alone. Map keys and the output
// of types with their own MarshalJSON or MarshalText are never rewritten.
// Unmarshal relies on encoding/json's case-insensitive field matching,
// which makes the two directions symmetric.
type CamelCodec struct{}

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// Marshal implements Codec.
func (CamelCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	camelize(&buf, gjson.ParseBytes(data), reflect.ValueOf(v))
	return buf.Bytes(), nil
}

// Unmarshal implements Codec.
func (CamelCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// camelize copies r to dst, renaming the keys of objects encoded from
// structs. v is the Go value r was encoded from; it is invalid when the
// value is unknown, in which case keys are copied unchanged.
func camelize(dst *bytes.Buffer, r gjson.Result, v reflect.Value) {
	v = indirect(v)
	if v.IsValid() && customEncoding(v) {
		dst.WriteString(r.Raw)
		return
	}

	switch {
	case r.IsObject():
		var fields map[string]reflect.Value
		var rename bool
		if v.IsValid() && v.Kind() == reflect.Struct {
			fields = structFields(v)
			rename = true
		}

		dst.WriteByte('{')
		first := true
		r.ForEach(func(key, value gjson.Result) bool {
			if !first {
				dst.WriteByte(',')
			}
			first = false

			name := key.String()
			var elem reflect.Value
			if rename {
				elem = fields[name]
				name = CamelKey(name)
			} else if v.IsValid() && v.Kind() == reflect.Map {
				elem = mapValue(v, name)
			}

			k, _ := json.Marshal(name)
			dst.Write(k)
			dst.WriteByte(':')
			camelize(dst, value, elem)
			return true
		})
		dst.WriteByte('}')
	case r.IsArray():
		indexable := v.IsValid() && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array)
		dst.WriteByte('[')
		i := 0
		r.ForEach(func(_, value gjson.Result) bool {
			if i > 0 {
				dst.WriteByte(',')
			}
			var elem reflect.Value
			if indexable && i < v.Len() {
				elem = v.Index(i)
			}
			camelize(dst, value, elem)
			i++
			return true
		})
		dst.WriteByte(']')
	default:
		dst.WriteString(r.Raw)
	}
}

// indirect follows pointers and interfaces to the value they hold.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func customEncoding(v reflect.Value) bool {
	t := v.Type()
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return true
	}
	if v.CanAddr() {
		pt := reflect.PointerTo(t)
		return pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType)
	}
	return false
}

// structFields maps the JSON names encoding/json gives the fields of the
// struct v, including promoted fields of embedded structs, to their values.
func structFields(v reflect.Value) map[string]reflect.Value {
	fields := make(map[string]reflect.Value)
	collectFields(v, fields)
	return fields
}

func collectFields(v reflect.Value, fields map[string]reflect.Value) {
	t := v.Type()
	var embedded []reflect.Value
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if ev := indirect(v.Field(i)); ev.IsValid() {
					embedded = append(embedded, ev)
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = v.Field(i)
	}

	// Shallower fields take precedence over promoted ones.
	for _, ev := range embedded {
		promoted := make(map[string]reflect.Value)
		collectFields(ev, promoted)
		for name, fv := range promoted {
			if _, ok := fields[name]; !ok {
				fields[name] = fv
			}
		}
	}
}

// mapValue returns the element of map m stored under the JSON object key
// key, or the zero Value when the key kind cannot be recovered.
func mapValue(m reflect.Value, key string) reflect.Value {
	kt := m.Type().Key()
	var k reflect.Value
	switch kt.Kind() {
	case reflect.String:
		k = reflect.ValueOf(key).Convert(kt)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return reflect.Value{}
		}
		k = reflect.New(kt).Elem()
		k.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return reflect.Value{}
		}
		k = reflect.New(kt).Elem()
		k.SetUint(n)
	default:
		return reflect.Value{}
	}
	return m.MapIndex(k)
}

// CamelKey converts an exported Go identifier to its camelCase wire name.
func CamelKey(s string) string {
	first, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(first) {
		return s
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	firstWord := true
	for i, r := range runes {
		wordStart := false
		if i > 0 && unicode.IsUpper(r) {
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !prevUpper || nextLower {
				wordStart = true
				firstWord = false
			}
		}

		switch {
		case firstWord:
			b.WriteRune(unicode.ToLower(r))
		case wordStart:
			b.WriteRune(r)
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// isNullPayload reports whether data is empty or the JSON literal null.
// Malformed input is not null; it is left for Unmarshal to reject.
func isNullPayload(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return true
	}
	return gjson.ValidBytes(data) && gjson.ParseBytes(data).Type == gjson.Null
}
