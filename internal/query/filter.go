// Package query builds and parses the catalogue store's filter expressions.
//
// The wire format between the front door, the authoring tools, and the data
// access gateway is a small SQL-shaped filter string inherited from the
// system's first deployment. This package is the only place that knows the
// grammar: one side constructs filter strings from typed values, the other
// side maps a filter string back onto typed predicates the repository can
// execute. Supported shapes:
//
//	SELECT * FROM c
//	SELECT * FROM c WHERE c.id = '<id>'
//	SELECT * FROM c WHERE STARTSWITH(c.id, '<prefix>')
//	SELECT t.intent, t.response FROM c JOIN t IN c.intents
//	    WHERE c.id = '<id>' AND t.intent = '<name>'
package query

import (
	"errors"
	"regexp"
	"strings"
)

// ErrBadFilter is returned when a filter string does not match any
// supported shape.
var ErrBadFilter = errors.New("unsupported filter expression")

// Filter is the typed form of a parsed filter expression. Zero-valued
// fields are unset predicates.
type Filter struct {
	// ID matches a device id exactly (case-sensitive, as stored).
	ID string
	// IDPrefix matches device ids by prefix (STARTSWITH).
	IDPrefix string
	// Intent matches an intent name exactly within the selected device.
	Intent string
}

// BuildIntentQuery produces the intent-scoped filter for a derived lookup
// key. The construction is kept byte-identical to the legacy wire format,
// including the absence of quote escaping; callers are trusted upstream
// (see the catalogue-authoring validation rules).
func BuildIntentQuery(deviceID, intentName string) string {
	return "SELECT t.intent, t.response FROM c JOIN t IN c.intents WHERE c.id = '" +
		deviceID + "' AND t.intent = '" + intentName + "'"
}

// BuildDevicesQuery produces the filter selecting every device document.
func BuildDevicesQuery() string {
	return "SELECT * FROM c"
}

// BuildDeviceIDQuery produces the filter selecting one device by exact id.
func BuildDeviceIDQuery(id string) string {
	return "SELECT * FROM c WHERE c.id = '" + id + "'"
}

// BuildDevicePrefixQuery produces the filter selecting devices whose id
// starts with prefix.
func BuildDevicePrefixQuery(prefix string) string {
	return "SELECT * FROM c WHERE STARTSWITH(c.id, '" + prefix + "')"
}

var (
	idEqRE     = regexp.MustCompile(`c\.id\s*=\s*'([^']*)'`)
	intentEqRE = regexp.MustCompile(`t\.intent\s*=\s*'([^']*)'`)
	startsRE   = regexp.MustCompile(`STARTSWITH\(\s*c\.id\s*,\s*'([^']*)'\s*\)`)
)

// ParseDevicesFilter maps a device-scoped filter string onto a Filter.
// An expression without a WHERE clause selects all devices. Quoted values
// are read up to the first closing quote; embedded quotes cannot widen the
// predicate.
func ParseDevicesFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToUpper(s), "SELECT") {
		return Filter{}, ErrBadFilter
	}
	if intentEqRE.MatchString(s) {
		// Intent-scoped expressions are not valid device filters.
		return Filter{}, ErrBadFilter
	}

	var f Filter
	if m := startsRE.FindStringSubmatch(s); m != nil {
		f.IDPrefix = m[1]
		return f, nil
	}
	if m := idEqRE.FindStringSubmatch(s); m != nil {
		f.ID = m[1]
		return f, nil
	}
	if strings.Contains(strings.ToUpper(s), "WHERE") {
		// A WHERE clause we cannot interpret must not silently widen to "all".
		return Filter{}, ErrBadFilter
	}
	return f, nil
}

// ParseIntentFilter maps an intent-scoped filter string onto a Filter.
// Both the owning device id and the intent name must be present.
func ParseIntentFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToUpper(s), "SELECT") {
		return Filter{}, ErrBadFilter
	}
	idm := idEqRE.FindStringSubmatch(s)
	inm := intentEqRE.FindStringSubmatch(s)
	if idm == nil || inm == nil {
		return Filter{}, ErrBadFilter
	}
	return Filter{ID: idm[1], Intent: inm[1]}, nil
}
