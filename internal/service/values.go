package service

import "strings"

// SplitList splits a comma separated field into trimmed names in source
// order. Empty tokens and tokens equal to one of absent are dropped, so a
// field that is entirely absent yields nil. Duplicates are kept.
func SplitList(raw string, absent ...string) []string {
	if isAbsent(raw, absent) {
		return nil
	}

	var names []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if isAbsent(token, absent) {
			continue
		}
		names = append(names, token)
	}
	return names
}

// Optional returns the trimmed value, or nil if it is empty or absent.
func Optional(raw string, absent ...string) *string {
	if isAbsent(raw, absent) {
		return nil
	}
	v := strings.TrimSpace(raw)
	return &v
}

func isAbsent(raw string, absent []string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return true
	}
	for _, a := range absent {
		if v == a {
			return true
		}
	}
	return false
}
