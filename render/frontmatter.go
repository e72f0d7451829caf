package render

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var ErrMissingClosingDelimiter = errors.New("front matter: missing closing --- delimiter")

// Meta is the front matter a page or layout may declare. Anything else is
// kept in the page's Data map.
type Meta struct {
	Title     string    `mapstructure:"title"`
	Layout    string    `mapstructure:"layout"`
	Date      time.Time `mapstructure:"date"`
	Tags      []string  `mapstructure:"tags"`
	Permalink string    `mapstructure:"permalink"`
}

// SplitFrontMatter separates `---` delimited front matter from the body.
// Content without an opening delimiter is all body.
func SplitFrontMatter(content []byte) (fm []byte, body []byte, err error) {
	nl := []byte("\n")
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = []byte("\r\n")
	}
	open := append([]byte("---"), nl...)
	if !bytes.HasPrefix(content, open) {
		return nil, content, nil
	}
	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], nil
	}

	closeSeq := append(append([]byte{}, nl...), []byte("---")...)
	for off := 0; off < len(rest); {
		idx := bytes.Index(rest[off:], closeSeq)
		if idx < 0 {
			break
		}
		end := off + idx + len(closeSeq)
		after := rest[end:]
		if len(after) == 0 || bytes.HasPrefix(after, nl) {
			return rest[:off+idx+len(nl)], bytes.TrimPrefix(after, nl), nil
		}
		off = end
	}
	return nil, nil, ErrMissingClosingDelimiter
}

// ParseFrontMatter decodes yaml front matter into Meta and a map of every
// key.
func ParseFrontMatter(fm []byte) (Meta, map[string]interface{}, error) {
	var meta Meta
	data := make(map[string]interface{})
	if len(bytes.TrimSpace(fm)) == 0 {
		return meta, data, nil
	}
	if err := yaml.Unmarshal(fm, &data); err != nil {
		return meta, nil, fmt.Errorf("front matter: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToTimeHook,
		WeaklyTypedInput: true,
		Result:           &meta,
	})
	if err != nil {
		return meta, nil, err
	}
	if err := dec.Decode(data); err != nil {
		return meta, nil, fmt.Errorf("front matter: %w", err)
	}
	return meta, data, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func stringToTimeHook(from, to reflect.Type, v interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Time{}) || from.Kind() != reflect.String {
		return v, nil
	}
	s := v.(string)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}
