package timezone

import "time"

// the upstream timetable reports every time as minutes since local
// midnight with no timezone attached, so capture is pinned to campus
// time regardless of where the process runs
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Toronto")
	if err != nil {
		panic(err)
	}
}
