package responsecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// json sorts map keys, so equal maps always encode to the same bytes
var json = jsoniter.ConfigCompatibleWithStandardLibrary

const timestampField = "timestamp"

// cachedPage is one page of a response together with the digest of its bytes
type cachedPage struct {
	CachedResponse jsoniter.RawMessage `json:"cachedResponse"`
	Hash           string              `json:"hash"`
}

// entry is stored as {"timestamp": <epoch ms>, "<page>": cachedPage, ...}
type entry struct {
	Timestamp int64
	Pages     map[string]cachedPage
}

func newEntry(timestampMs int64) *entry {
	return &entry{Timestamp: timestampMs, Pages: make(map[string]cachedPage)}
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (p cachedPage) valid() bool {
	return p.Hash == digest(p.CachedResponse)
}

func encodeEntry(e *entry) ([]byte, error) {
	fields := make(map[string]interface{}, len(e.Pages)+1)
	for name, page := range e.Pages {
		fields[name] = page
	}
	fields[timestampField] = e.Timestamp
	return json.Marshal(fields)
}

func decodeEntry(data []byte) (*entry, error) {
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	ts, ok := raw[timestampField]
	if !ok {
		return nil, fmt.Errorf("cache entry has no %s", timestampField)
	}
	e := newEntry(0)
	if err := json.Unmarshal(ts, &e.Timestamp); err != nil {
		return nil, fmt.Errorf("decode cache entry timestamp: %w", err)
	}

	for name, value := range raw {
		if name == timestampField {
			continue
		}
		var page cachedPage
		if err := json.Unmarshal(value, &page); err != nil {
			return nil, fmt.Errorf("decode cache page %q: %w", name, err)
		}
		e.Pages[name] = page
	}
	return e, nil
}
