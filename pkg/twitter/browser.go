package twitter

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Element is one node in a rendered page. Every probe returns an ordinary
// value: a zero match, a missing attribute, and a probe timeout all surface
// as the ok result being false, never as an error the caller must handle.
type Element interface {
	// Query returns the elements matching the selector below this element,
	// in document order. No matches is an empty slice.
	Query(selector string) []Element
	// Text returns the element's visible text
	Text() (string, bool)
	// Attr returns the named attribute's value. An empty attribute counts
	// as absent.
	Attr(name string) (string, bool)
}

// locatorElement adapts a playwright locator to the Element probe contract.
// All probes are bounded by the same short timeout so one missing node can
// never stall a whole extraction.
type locatorElement struct {
	loc     playwright.Locator
	timeout float64 // milliseconds
}

func newElement(loc playwright.Locator, probeTimeout time.Duration) Element {
	return &locatorElement{
		loc:     loc,
		timeout: float64(probeTimeout.Milliseconds()),
	}
}

func (e *locatorElement) Query(selector string) []Element {
	matches, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil
	}
	elements := make([]Element, 0, len(matches))
	for _, match := range matches {
		elements = append(elements, &locatorElement{loc: match, timeout: e.timeout})
	}
	return elements
}

func (e *locatorElement) Text() (string, bool) {
	text, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(e.timeout),
	})
	if err != nil {
		return "", false
	}
	return text, true
}

func (e *locatorElement) Attr(name string) (string, bool) {
	value, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(e.timeout),
	})
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}
