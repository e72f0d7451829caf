package stdio

import (
	"fmt"
	"strings"
)

func (o StdIO) Infof(msg string, args ...interface{}) {
	if o.Quiet {
		return
	}
	fmt.Fprintf(o.Stdout(), msg+"\n", args...)
}

func (o StdIO) Debugf(msg string, args ...interface{}) {
	if !o.Verbose {
		return
	}
	l := o.Logger()
	l.Debug().Msgf(msg, args...)
}

func (o StdIO) Warning(args ...interface{}) {
	l := o.Logger()
	l.Warn().Msg(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (o StdIO) Warningf(msg string, args ...interface{}) {
	l := o.Logger()
	l.Warn().Msgf(msg, args...)
}

func fmtScopes(scopes []string) string { return strings.Join(scopes, ":") }
