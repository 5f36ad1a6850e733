// Package fuzztests houses Go fuzz harnesses for the document parsers, the
// flattener and the locators. They guard against panics and against spans
// that fall outside the text on arbitrary input.
package fuzztests
