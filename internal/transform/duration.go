package transform

// DefaultDurationMins applies when neither the week nor the descriptor carries a length.
const DefaultDurationMins = 60

// ResolveRaceDuration returns the minutes used to compute a race's end time.
// The descriptor's session length wins over the week's race time limit, since a
// session includes practice and qualifying on top of the race itself.
func ResolveRaceDuration(sessionMinutes, raceTimeLimit *int) int {
	if sessionMinutes != nil {
		return *sessionMinutes
	}
	if raceTimeLimit != nil {
		return *raceTimeLimit
	}
	return DefaultDurationMins
}

// ResolveDisplayDuration returns the minutes shown to users as the race length.
// The week's race time limit wins over the session length.
func ResolveDisplayDuration(sessionMinutes, raceTimeLimit *int) int {
	if raceTimeLimit != nil {
		return *raceTimeLimit
	}
	if sessionMinutes != nil {
		return *sessionMinutes
	}
	return DefaultDurationMins
}
