package main

import "strings"

// extractPartNumber derives the canonical 11-character part number from a
// scanned serial. Two formats exist on the line:
//
//	EBR30299301922601070001                  -> EBR30299301 (fixed-width prefix)
//	I20260106-0011-1142;MAIN;EBR80757422;1;  -> EBR80757422 (third field)
//
// Returns "" when no part number can be derived. A missing part number is
// a data-quality fact surfaced to the caller, not an error.
func extractPartNumber(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if strings.Contains(trimmed, ";") {
		fields := strings.Split(trimmed, ";")
		if len(fields) >= 3 {
			pn := strings.TrimSpace(fields[2])
			if len(pn) == 11 {
				return pn
			}
		}
		return ""
	}

	if len(trimmed) >= 11 {
		return trimmed[:11]
	}

	return ""
}
