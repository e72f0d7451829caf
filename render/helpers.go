package render

import (
	"fmt"
	"html/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/davecgh/go-spew/spew"
)

const (
	readableDateLayout = "January 2, 2006"
	htmlDateLayout     = "2006-01-02"
)

func tmplHelpers() template.FuncMap {
	fns := template.FuncMap{
		"string":       toString,
		"dump":         dump,
		"readableDate": readableDate,
		"htmlDate":     htmlDate,
		"formatDate":   FormatDate,
	}

	spfns := sprig.HermeticHtmlFuncMap()
	for k, fn := range spfns {
		if _, ok := fns[k]; ok {
			continue
		}
		fns[k] = fn
	}
	return fns
}

func dump(v interface{}) string {
	return spew.Sdump(v)
}

// FormatDate formats v, a time.Time or a date string, in UTC with a go
// time layout.
func FormatDate(v interface{}, layout string) (string, error) {
	t, err := toTime(v)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(layout), nil
}

func readableDate(v interface{}) (string, error) { return FormatDate(v, readableDateLayout) }

func htmlDate(v interface{}) (string, error) { return FormatDate(v, htmlDateLayout) }

func toTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, nil
		}
		return *t, nil
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("render: unrecognized date %q", t)
	default:
		return time.Time{}, fmt.Errorf("render: can't format %T as a date", v)
	}
}

func toString(i interface{}) string {
	switch v := i.(type) {
	case string:
		return v
	case []uint8:
		return string(v)
	case template.HTML:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		panic(fmt.Sprintf("render: string conversion for %T not supported", i))
	}
}
