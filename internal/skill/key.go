package skill

import "strings"

// minKeyedNameLen is the shortest intent name carrying a full lookup key:
// 5 id characters, 1 separator, and at least 1 intent-name character.
const minKeyedNameLen = 7

// LookupKey addresses one stored response: a 5-letter device id plus the
// intent name within that device's catalogue.
type LookupKey struct {
	DeviceID   string
	IntentName string
}

// SplitIntentName derives a LookupKey from a platform intent name using a
// strict fixed-offset split: the first 5 characters are the device id
// (lower-cased) and everything from offset 6 on is the intent name; the 6th
// character is a separator and is dropped without being inspected.
//
// Names shorter than the full shape degrade to a best-effort key and report
// ok=false; they never panic. "istat_GET_HOURS" yields {"istat", "GET_HOURS"}.
func SplitIntentName(name string) (LookupKey, bool) {
	if len(name) < 5 {
		return LookupKey{}, false
	}
	key := LookupKey{DeviceID: strings.ToLower(name[:5])}
	if len(name) < minKeyedNameLen {
		return key, false
	}
	key.IntentName = name[6:]
	return key, true
}
