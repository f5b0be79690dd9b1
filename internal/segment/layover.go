package segment

const minutesPerDay = 24 * 60

// Connection is the estimated ground time between segment Index and
// segment Index+1. Minutes is -1 when it could not be estimated.
type Connection struct {
	Index   int
	Minutes int
	Airport string
}

func (c Connection) Known() bool {
	return c.Minutes >= 0
}

// EstimateLayovers returns one connection per pair of consecutive segments.
//
// When no descriptor carries a duration at all, every connection is assumed
// to take defaultMinutes. Otherwise a connection is measured as the gap
// between the arrival of one segment (its departure plus duration) and the
// departure of the next, wrapping over midnight; connections missing any of
// those values are left unknown.
func EstimateLayovers(p Parser, texts []string, defaultMinutes int) []Connection {
	if len(texts) <= 1 {
		return nil
	}

	segs := make([]Segment, len(texts))
	anyDuration := false
	for i, text := range texts {
		seg, _ := p.Parse(text)
		segs[i] = seg
		if seg.HasDuration() {
			anyDuration = true
		}
	}

	conns := make([]Connection, 0, len(texts)-1)
	for i := 0; i < len(texts)-1; i++ {
		c := Connection{Index: i, Minutes: -1, Airport: segs[i].Destination}
		if !anyDuration {
			c.Minutes = defaultMinutes
		} else if gap, ok := groundTime(segs[i], segs[i+1]); ok {
			c.Minutes = gap
		}
		conns = append(conns, c)
	}
	return conns
}

func groundTime(cur, next Segment) (int, bool) {
	if cur.DepartureTime == nil || next.DepartureTime == nil || !cur.HasDuration() {
		return 0, false
	}
	arrival := cur.DepartureTime.Minutes() + cur.DurationMinutes
	gap := (next.DepartureTime.Minutes() - arrival) % minutesPerDay
	if gap < 0 {
		gap += minutesPerDay
	}
	return gap, true
}
