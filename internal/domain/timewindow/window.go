// Package timewindow derives the available study time-windows for each day
// of a date range from the user's settings: study days and hours minus the
// sleep window, exercise window and prayer-time blocks.
package timewindow

import "fmt"

// minutesPerDay is the number of minutes in a calendar day.
const minutesPerDay = 24 * 60

// MinUsableMinutes is the smallest window worth scheduling into; subtraction
// fragments shorter than this are discarded.
const MinUsableMinutes = 25

// Window is a half-open interval of minutes from local midnight,
// [Start, End).
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Duration returns the window length in minutes.
func (w Window) Duration() int {
	return w.End - w.Start
}

// Contains reports whether the given minute falls inside the window.
func (w Window) Contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

// String formats the window as HH:MM-HH:MM for logs.
func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// subtract removes the block [blockStart, blockEnd) from every window in the
// list, returning the surviving sub-windows in order. Fragments shorter than
// MinUsableMinutes are dropped.
func subtract(windows []Window, blockStart, blockEnd int) []Window {
	if blockEnd <= blockStart {
		return windows
	}

	var result []Window
	for _, w := range windows {
		// No overlap: the window survives untouched.
		if blockEnd <= w.Start || blockStart >= w.End {
			result = appendUsable(result, w)
			continue
		}

		// Left remainder before the block.
		if blockStart > w.Start {
			result = appendUsable(result, Window{Start: w.Start, End: blockStart})
		}

		// Right remainder after the block.
		if blockEnd < w.End {
			result = appendUsable(result, Window{Start: blockEnd, End: w.End})
		}
	}
	return result
}

// subtractWrapping removes a block that may wrap past midnight (start after
// end, e.g. sleep 23:00-06:00). A wrapping block subtracts both tails.
func subtractWrapping(windows []Window, blockStart, blockEnd int) []Window {
	if blockStart == blockEnd {
		return windows
	}
	if blockStart < blockEnd {
		return subtract(windows, blockStart, blockEnd)
	}
	windows = subtract(windows, blockStart, minutesPerDay)
	return subtract(windows, 0, blockEnd)
}

func appendUsable(windows []Window, w Window) []Window {
	if w.Duration() < MinUsableMinutes {
		return windows
	}
	return append(windows, w)
}
