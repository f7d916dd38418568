package model

import (
    "bytes"
    "encoding/json"
    "fmt"
    "maps"
    "math"
    "slices"
    "strconv"
)

// Attraction is a tourist attraction held by the registry.  ID is assigned by
// the server and never changes once assigned.  Every other attribute lives in
// Fields exactly as the client sent it, whatever its JSON type.
type Attraction struct {
    ID     int
    Fields map[string]any
}

// attributeOrder is the key order of the seed records.  Keys outside this
// list are written after them in lexical order.
var attributeOrder = []string{"name", "description", "location", "category", "rating", "image_url"}

// Payload is a decoded request body: attribute name to value.  An "id" key
// is never copied into a record.
type Payload map[string]any

// NewAttraction builds a record with the given id from p.  A rating that is
// absent or falsy (null, false, 0, "") becomes 0.
func NewAttraction(id int, p Payload) Attraction {
    a := Attraction{ID: id, Fields: make(map[string]any, len(p)+1)}
    p.Apply(&a)
    if falsy(a.Fields["rating"]) {
        a.Fields["rating"] = float64(0)
    }
    return a
}

// Apply copies every key of p over a, leaving ID alone.
func (p Payload) Apply(a *Attraction) {
    if a.Fields == nil {
        a.Fields = make(map[string]any, len(p))
    }
    for k, v := range p {
        if k == "id" {
            continue
        }
        a.Fields[k] = v
    }
}

// Value returns the attribute stored under key, or nil.
func (a Attraction) Value(key string) any {
    if key == "id" {
        return a.ID
    }
    return a.Fields[key]
}

// Clone returns a deep copy of a so the copy can leave the registry lock.
func (a Attraction) Clone() Attraction {
    if a.Fields == nil {
        return a
    }
    return Attraction{ID: a.ID, Fields: cloneValue(a.Fields).(map[string]any)}
}

// MarshalJSON writes id first, then the seed attributes in their usual order,
// then any other attributes.
func (a Attraction) MarshalJSON() ([]byte, error) {
    var buf bytes.Buffer
    buf.WriteString(`{"id":`)
    buf.WriteString(strconv.Itoa(a.ID))
    for _, k := range a.keys() {
        key, err := json.Marshal(k)
        if err != nil {
            return nil, err
        }
        val, err := json.Marshal(a.Fields[k])
        if err != nil {
            return nil, fmt.Errorf("attraction %d attribute %s: %w", a.ID, key, err)
        }
        buf.WriteByte(',')
        buf.Write(key)
        buf.WriteByte(':')
        buf.Write(val)
    }
    buf.WriteByte('}')
    return buf.Bytes(), nil
}

// UnmarshalJSON reads a record written by MarshalJSON.
func (a *Attraction) UnmarshalJSON(b []byte) error {
    var m map[string]any
    if err := json.Unmarshal(b, &m); err != nil {
        return err
    }
    a.ID = 0
    if id, ok := m["id"].(float64); ok {
        a.ID = int(id)
    }
    delete(m, "id")
    a.Fields = m
    return nil
}

func (a Attraction) keys() []string {
    keys := make([]string, 0, len(a.Fields))
    for _, k := range attributeOrder {
        if _, ok := a.Fields[k]; ok {
            keys = append(keys, k)
        }
    }
    for _, k := range slices.Sorted(maps.Keys(a.Fields)) {
        if k != "id" && !slices.Contains(attributeOrder, k) {
            keys = append(keys, k)
        }
    }
    return keys
}

// falsy reports whether v is one of the JSON values a lenient client treats
// as "no value".
func falsy(v any) bool {
    switch t := v.(type) {
    case nil:
        return true
    case bool:
        return !t
    case float64:
        return t == 0 || math.IsNaN(t)
    case int:
        return t == 0
    case string:
        return t == ""
    }
    return false
}

func cloneValue(v any) any {
    switch t := v.(type) {
    case map[string]any:
        m := make(map[string]any, len(t))
        for k, e := range t {
            m[k] = cloneValue(e)
        }
        return m
    case []any:
        s := make([]any, len(t))
        for i, e := range t {
            s[i] = cloneValue(e)
        }
        return s
    }
    return v
}
