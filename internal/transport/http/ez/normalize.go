package ez

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

var errMalformedJSON = errors.New("malformed JSON body")

// SnakeKeys rewrites every object key of a JSON document to snake_case so
// clients may send either externalUrl or external_url. When both spellings
// are present the snake_case one wins. An empty body reads as {}.
func SnakeKeys(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, errMalformedJSON
	}
	return json.Marshal(snakeValue(gjson.ParseBytes(raw)))
}

func snakeValue(v gjson.Result) any {
	switch {
	case v.IsObject():
		out := map[string]any{}
		explicit := map[string]bool{}
		v.ForEach(func(k, val gjson.Result) bool {
			key := k.String()
			sk := toSnake(key)
			if sk == key {
				explicit[sk] = true
			} else if explicit[sk] {
				return true
			}
			out[sk] = snakeValue(val)
			return true
		})
		return out
	case v.IsArray():
		items := v.Array()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = snakeValue(it)
		}
		return out
	default:
		return json.RawMessage(v.Raw)
	}
}

// toSnake lower-cases s and separates words with '_'. A run of capitals is
// one word, so externalURL becomes external_url and HTTPSPort https_port.
func toSnake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) && i > 0 && rs[i-1] != '_' {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
