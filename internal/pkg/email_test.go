package pkg

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWelcomeHTMLEscapesName(t *testing.T) {
	c := qt.New(t)
	body := WelcomeHTML("<b>Ann</b>")
	c.Assert(body, qt.Contains, "&lt;b&gt;Ann&lt;/b&gt;")
	c.Assert(body, qt.Not(qt.Contains), "<b>Ann</b>")
}
