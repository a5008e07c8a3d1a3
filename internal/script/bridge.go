package script

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"
)

// Bridge converts values between Go, Lua and JSON.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a Bridge for L.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToGoValue converts a Lua value to a Go value. Tables become []any when
// their keys are exactly 1..n and map[string]any otherwise. Functions and
// cyclic references convert to nil.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGo(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return b.tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func (b *Bridge) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN, count := 0, 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				maxN = max(maxN, n)
				return
			}
		}
		isArray = false
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = b.toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = strconv.FormatFloat(float64(kv), 'f', -1, 64)
		default:
			key = k.String()
		}
		m[key] = b.toGo(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	if v == nil {
		return lua.LNil
	}

	switch val := v.(type) {
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case json.RawMessage:
		return b.FromJSON(gjson.ParseBytes(val))
	case []any:
		t := b.L.CreateTable(len(val), 0)
		for i, e := range val {
			t.RawSetInt(i+1, b.ToLuaValue(e))
		}
		return t
	case []string:
		t := b.L.CreateTable(len(val), 0)
		for i, e := range val {
			t.RawSetInt(i+1, lua.LString(e))
		}
		return t
	case map[string]any:
		t := b.L.CreateTable(0, len(val))
		for k, e := range val {
			t.RawSetString(k, b.ToLuaValue(e))
		}
		return t
	case map[string]string:
		t := b.L.CreateTable(0, len(val))
		for k, e := range val {
			t.RawSetString(k, lua.LString(e))
		}
		return t
	default:
		return b.reflectToLua(reflect.ValueOf(v))
	}
}

func (b *Bridge) reflectToLua(rv reflect.Value) lua.LValue {
	switch rv.Kind() {
	case reflect.Invalid:
		return lua.LNil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return lua.LNil
		}
		return b.ToLuaValue(rv.Elem().Interface())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Slice, reflect.Array:
		t := b.L.CreateTable(rv.Len(), 0)
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, b.ToLuaValue(rv.Index(i).Interface()))
		}
		return t
	case reflect.Map:
		t := b.L.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSet(b.ToLuaValue(iter.Key().Interface()), b.ToLuaValue(iter.Value().Interface()))
		}
		return t
	case reflect.Struct:
		return b.structToTable(rv)
	default:
		ud := b.L.NewUserData()
		ud.Value = rv.Interface()
		return ud
	}
}

// structToTable uses json tag names when present, otherwise field names.
func (b *Bridge) structToTable(rv reflect.Value) *lua.LTable {
	rt := rv.Type()
	t := b.L.CreateTable(0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			if tag == "-" {
				continue
			}
			for j := 0; j < len(tag); j++ {
				if tag[j] == ',' {
					tag = tag[:j]
					break
				}
			}
			if tag != "" {
				name = tag
			}
		}
		t.RawSetString(name, b.ToLuaValue(rv.Field(i).Interface()))
	}
	return t
}

// FromJSON converts a parsed JSON value to a Lua value. JSON null becomes nil.
func (b *Bridge) FromJSON(r gjson.Result) lua.LValue {
	switch r.Type {
	case gjson.True:
		return lua.LTrue
	case gjson.False:
		return lua.LFalse
	case gjson.Number:
		return lua.LNumber(r.Num)
	case gjson.String:
		return lua.LString(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			t := b.L.NewTable()
			i := 0
			r.ForEach(func(_, v gjson.Result) bool {
				i++
				t.RawSetInt(i, b.FromJSON(v))
				return true
			})
			return t
		}
		t := b.L.NewTable()
		r.ForEach(func(k, v gjson.Result) bool {
			t.RawSetString(k.Str, b.FromJSON(v))
			return true
		})
		return t
	default:
		return lua.LNil
	}
}

// DecodeJSON parses data and converts it to a Lua value.
func (b *Bridge) DecodeJSON(data []byte) (lua.LValue, error) {
	if !gjson.ValidBytes(data) {
		return lua.LNil, fmt.Errorf("invalid json: %.64q", data)
	}
	return b.FromJSON(gjson.ParseBytes(data)), nil
}

// EncodeJSON converts a Lua value to JSON. An empty table encodes as {}.
func (b *Bridge) EncodeJSON(lv lua.LValue) ([]byte, error) {
	return json.Marshal(b.ToGoValue(lv))
}

// CallFunc calls fn with Go arguments and returns its results as Go values.
func (b *Bridge) CallFunc(fn *lua.LFunction, args ...any) ([]any, error) {
	top := b.L.GetTop()

	b.L.Push(fn)
	for _, arg := range args {
		b.L.Push(b.ToLuaValue(arg))
	}
	if err := b.L.PCall(len(args), lua.MultRet, nil); err != nil {
		return nil, err
	}

	n := b.L.GetTop() - top
	if n <= 0 {
		return nil, nil
	}
	results := make([]any, n)
	for i := 0; i < n; i++ {
		results[i] = b.ToGoValue(b.L.Get(top + i + 1))
	}
	b.L.Pop(n)
	return results, nil
}
