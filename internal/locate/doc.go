// Package locate recovers the byte span of a key inside raw document text.
//
// Parsers drop source positions, so the JSON locators work directly on the
// text with a small scanner that tracks offsets. Three policies exist:
//
//   - PolicyFirstMatch walks the dotted path token by token: each parent key
//     is the first occurrence after the cursor, followed by the next "{".
//     When a parent name repeats at one level the first occurrence wins, even
//     if the missing key belongs to a later sibling.
//   - PolicyLegacy ignores the parents and returns the first occurrence of the
//     final key anywhere in the text.
//   - PolicyScoped follows the object structure and only reports the key at
//     exactly that path.
//
// Keys are matched by their decoded value, so a key written with JSON
// escapes ("caf\u00e9", "a\/b") is found and its span covers the escaped
// token. A key containing "." cannot be told apart from a nested path.
//
// A miss is reported as ok == false, never as an error.
package locate
