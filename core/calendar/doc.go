// Package calendar enumerates the call days of an academic sub-period.
//
// A Generator is driven by Rules: where the window starts, the weekday the
// first generated day must fall on, the month at which generation stops and
// how each weekday maps to a call type. DefaultRules describes the summer
// training block: from the first Saturday on or after July 1 through August
// 31, with Tuesday to Thursday as short calls and weekend days as Saturday
// and Sunday calls. Mondays and Fridays are walked but never listed.
//
// Generation is deterministic and keeps no state between calls.
package calendar
