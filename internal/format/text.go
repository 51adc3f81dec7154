package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteText writes an indented human-readable rendering.
//
// Implementation note: we target the payload shapes our CLI emits (maps,
// vectors, strings, numbers, booleans, nil). Structs are first passed through
// JSON so field naming follows the existing json tags.
func WriteText(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := textEncoder{indent: 2}
	enc.writeAny(&buf, x, 0)
	if buf.Len() == 0 || buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}
	_, err = w.Write(buf.Bytes())
	return err
}

type textEncoder struct {
	indent int
}

func (e textEncoder) writeAny(buf *bytes.Buffer, v any, level int) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("-")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		buf.WriteString(t)
	case float64:
		// JSON numbers become float64 in interface{}.
		if float64(int64(t)) == t {
			buf.WriteString(strconv.FormatInt(int64(t), 10))
			return
		}
		buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		e.writeList(buf, t, level)
	case map[string]any:
		e.writeMap(buf, t, level)
	default:
		buf.WriteString(fmt.Sprintf("%v", v))
	}
}

func (e textEncoder) writeList(buf *bytes.Buffer, xs []any, level int) {
	if len(xs) == 0 {
		buf.WriteString("(none)")
		return
	}
	for _, it := range xs {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", level*e.indent))
		buf.WriteString("- ")
		e.writeAny(buf, it, level+1)
	}
}

func (e textEncoder) writeMap(buf *bytes.Buffer, m map[string]any, level int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if i > 0 || level > 0 {
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat(" ", level*e.indent))
		}
		buf.WriteString(k)
		buf.WriteString(": ")
		e.writeAny(buf, m[k], level+1)
	}
}
