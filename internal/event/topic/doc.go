// Package topic provides dotted bridge names and pattern matching over them.
//
// # Name Format
//
// Names crossing the script bridge use dot-notation:
//
//	CustomerSelected
//	sales.order.created
//	clipboard.read.response
//
// # Wildcards
//
// Patterns may use two wildcards, each occupying a whole segment:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	sales.*             matches sales.opened (not sales.order.created)
//	sales.**            matches sales.opened, sales.order.created
//	*.created           matches order.created, invoice.created
//	**                  matches everything
//
// # Usage
//
//	m := topic.NewMatcher[*lua.LFunction]()
//	m.Add(topic.Topic("sales.*"), id, fn)
//
//	handlers := m.Match(topic.Topic("sales.opened"))
package topic
