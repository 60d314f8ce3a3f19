package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NullKey names the group of rows whose grouping column is NULL.
const NullKey = "null"

// CountEntry is one key of a CountMap
type CountEntry struct {
	Key   string
	Count int64
}

// CountMap is a key to count mapping that keeps insertion order. It encodes
// as a JSON object whose keys appear in that order.
type CountMap []CountEntry

// Get returns the count for key.
func (m CountMap) Get(key string) (int64, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Count, true
		}
	}
	return 0, false
}

// Total sums every count.
func (m CountMap) Total() int64 {
	var total int64
	for _, e := range m {
		total += e.Count
	}
	return total
}

// Keys returns the keys in order.
func (m CountMap) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

func (m CountMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", e.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *CountMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("count map: expected object, got %v", tok)
	}

	out := CountMap{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var count int64
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("count map: key %q: %w", key, err)
		}
		out = append(out, CountEntry{Key: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// groupCount is the row shape of a GROUP BY label, COUNT(*) query.
type groupCount struct {
	Label *string `db:"label"`
	Count int64   `db:"count"`
}

func toCountMap(rows []groupCount) CountMap {
	m := make(CountMap, 0, len(rows))
	for _, r := range rows {
		key := NullKey
		if r.Label != nil {
			key = *r.Label
		}
		m = append(m, CountEntry{Key: key, Count: r.Count})
	}
	return m
}
