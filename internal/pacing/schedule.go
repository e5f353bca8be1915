package pacing

import "time"

// Schedule names the delays used between interactions.
type Schedule struct {
	Action         Range
	PageSettle     Range
	Scan           Range
	ScanScroll     Range
	ScrollPause    Range
	LazyLoadSettle Range
	PopupSettle    Range
	CountrySettle  Range
	MonitorEvery   Range
}

func DefaultSchedule() Schedule {
	return Schedule{
		Action:         Between(2*time.Second, 5*time.Second),
		PageSettle:     Fixed(4 * time.Second),
		Scan:           Between(2*time.Second, 4*time.Second),
		ScanScroll:     Between(1*time.Second, 2500*time.Millisecond),
		ScrollPause:    Between(50*time.Millisecond, 120*time.Millisecond),
		LazyLoadSettle: Fixed(1500 * time.Millisecond),
		PopupSettle:    Fixed(1 * time.Second),
		CountrySettle:  Fixed(3 * time.Second),
		MonitorEvery:   Fixed(2 * time.Second),
	}
}
