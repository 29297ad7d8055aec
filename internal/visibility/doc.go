// Package visibility decides which catalog cards and page sections are visible for a
// combination of search text and pill filter.
//
// An Engine owns exactly one FilterState and is mutated only through SetQuery and
// SetActiveFilter. Each mutation returns a RenderDecision, a plain value that a renderer
// (the HTML page, the JSON endpoint, the terminal browser) applies to its own presentation.
// The engine performs no I/O and is not safe for concurrent use; construct one per
// session or request.
//
// Rules:
//
//   - An item is visible iff its normalized label contains the normalized query. The empty
//     query matches every item. Items inside a hidden section keep their flag; the section
//     hides them.
//   - A non-empty query hides every section whose category is not "items". Item sections
//     keep the visibility implied by the active filter.
//   - Switching filters clears the query and makes every item visible again.
package visibility
