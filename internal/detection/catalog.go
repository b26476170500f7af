package detection

import "strings"

// Static identifier sets driving frontmost-app and process matching. Names
// are compared lowercased with any .exe suffix stripped.

var knownVideoPlayers = map[string]struct{}{
	"vlc":       {},
	"mpv":       {},
	"iina":      {},
	"mpc-hc":    {},
	"mpc-hc64":  {},
	"wmplayer":  {},
	"quicktime": {},
	"kodi":      {},
}

var knownPresentationApps = map[string]struct{}{
	"powerpnt": {},
	"keynote":  {},
	"simpress": {},
	"soffice":  {},
	"prezi":    {},
}

var knownMeetingApps = map[string]struct{}{
	"zoom":        {},
	"teams":       {},
	"ms-teams":    {},
	"webex":       {},
	"webexmta":    {},
	"skype":       {},
	"slack":       {},
	"discord":     {},
	"gotomeeting": {},
	"bluejeans":   {},
	"chime":       {},
	"jitsi meet":  {},
	"ringcentral": {},
	"whereby":     {},
	"tuple":       {},
	"facetime":    {},
}

var knownRecordingTools = map[string]struct{}{
	"obs":                  {},
	"obs64":                {},
	"camtasia":             {},
	"snagit32":             {},
	"snagiteditor":         {},
	"loom":                 {},
	"screenflow":           {},
	"bandicam":             {},
	"sharex":               {},
	"screenstudio":         {},
	"cleanshot x":          {},
	"kap":                  {},
	"simplescreenrecorder": {},
}

// Background daemons that indicate an active sharing session even when the
// sharing application itself is not frontmost.
var knownSharingDaemons = map[string]struct{}{
	"caphost":               {},
	"cpthost":               {},
	"zoomsharehost":         {},
	"screensharingd":        {},
	"teamviewer_desktop":    {},
	"teamviewer_service":    {},
	"anydesk":               {},
	"rustdesk":              {},
	"parsecd":               {},
	"chrome_remote_desktop": {},
}

// normalizeAppName lowercases an application or process identifier and
// strips a trailing .exe so Windows and POSIX names match the same sets.
func normalizeAppName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".exe")
	return name
}

func inSet(set map[string]struct{}, name string) bool {
	_, ok := set[normalizeAppName(name)]
	return ok
}
