// Package paginator keeps a paged, searchable view over a fixed list of items.
//
// A Paginator owns three pieces of derived state: the query, the filtered
// subsequence of items matching it, and the current page within that
// subsequence. It never touches a document or a terminal directly. Hosts wire
// it to their environment through small interfaces:
//
//   - Navigator reads and writes the page encoded in an address fragment
//     ("#page-2") and reports changes made outside the paginator, such as
//     back/forward navigation.
//   - View shows or hides items, toggles the empty-state indicator and draws
//     pagination controls.
//   - Scheduler owns the debounce timer used by SetQuery.
//   - Scroller optionally brings the list container back into view.
//
// All methods are safe for concurrent use; every event is processed to
// completion before the next one starts.
package paginator
