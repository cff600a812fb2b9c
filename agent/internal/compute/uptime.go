package compute

// uptimeWindow is the number of recent collection outcomes tracked for uptime %.
const uptimeWindow = 20

// uptime is a bounded history of collection outcomes, newest last.
type uptime struct {
	history []bool
}

func (u *uptime) record(success bool) {
	if len(u.history) >= uptimeWindow {
		u.history = u.history[1:]
	}
	u.history = append(u.history, success)
}

func (u *uptime) pct() float64 {
	if len(u.history) == 0 {
		return 100 // assume up before first observation
	}
	var ok int
	for _, s := range u.history {
		if s {
			ok++
		}
	}
	return float64(ok) / float64(len(u.history)) * 100
}
