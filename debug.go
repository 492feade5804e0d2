package xpath

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

const indent = " "

var (
	tracer           = logrus.New()
	debugIndentLevel int
	doDebug          bool
)

func init() {
	tracer.SetLevel(logrus.TraceLevel)
	tracer.SetOutput(io.Discard)
}

// SetTraceOutput directs a trace of the grammar productions visited during
// parsing to w. Passing nil disables tracing again. The trace is meant for
// debugging grammars and expressions; it is off by default.
func SetTraceOutput(w io.Writer) {
	if w == nil {
		doDebug = false
		tracer.SetOutput(io.Discard)
		return
	}
	doDebug = true
	tracer.SetOutput(w)
}

func nextTokenField(tl *Tokenlist) string {
	peek, err := tl.peek()
	if err != nil {
		return "EOF"
	}
	return peek.String()
}

func enterStep(tl *Tokenlist, step string) {
	if doDebug {
		tracer.WithField("next", nextTokenField(tl)).Trace(strings.Repeat(indent, debugIndentLevel), ">> ", step)
		debugIndentLevel++
	}
}

func leaveStep(tl *Tokenlist, step string) {
	if doDebug {
		debugIndentLevel--
		tracer.WithField("next", nextTokenField(tl)).Trace(strings.Repeat(indent, debugIndentLevel), "<< ", step)
	}
}
