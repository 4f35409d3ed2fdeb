package resolver

import "regexp"

// videoIDPattern matches the 11-character video id in watch (?v=), /v/ and
// youtu.be URL forms.
var videoIDPattern = regexp.MustCompile(`(?:v=|/v/|youtu\.be/)([^"&?/\s]{11})`)

// ExtractVideoID pulls the video id out of a YouTube URL. ok is false when
// the URL carries no recognizable id.
func ExtractVideoID(rawURL string) (string, bool) {
	match := videoIDPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", false
	}
	return match[1], true
}
