package api

import (
	"mime/multipart"
	"sort"
	"strconv"
	"strings"
)

// fileKey is the form field (or field prefix) carrying recordings
const fileKey = "files"

// filePart is one submitted file field. header is nil when the client sent
// the field without a filename.
type filePart struct {
	filename string
	header   *multipart.FileHeader
}

// hasAnyFile reports whether the form carries at least one file field
func hasAnyFile(form *multipart.Form) bool {
	if form == nil {
		return false
	}
	if len(form.File) > 0 {
		return true
	}
	_, ok := form.Value[fileKey]
	return ok
}

// normalizeUploads flattens the two accepted shapes into one ordered list:
// a repeated "files" field, or "files1", "files2", ... ordered by suffix.
// Parts sent without a filename are parsed as plain values by
// mime/multipart; they are kept here as empty-name entries.
func normalizeUploads(form *multipart.Form) []filePart {
	if form == nil {
		return nil
	}
	if parts := fieldParts(form, fileKey); len(parts) > 0 {
		return parts
	}

	keys := make(map[string]struct{})
	for k := range form.File {
		if strings.HasPrefix(k, fileKey) {
			keys[k] = struct{}{}
		}
	}
	for k := range form.Value {
		if strings.HasPrefix(k, fileKey) {
			keys[k] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return suffixLess(ordered[i], ordered[j])
	})

	var parts []filePart
	for _, k := range ordered {
		parts = append(parts, fieldParts(form, k)...)
	}
	return parts
}

func fieldParts(form *multipart.Form, key string) []filePart {
	var parts []filePart
	for _, fh := range form.File[key] {
		parts = append(parts, filePart{filename: fh.Filename, header: fh})
	}
	for range form.Value[key] {
		parts = append(parts, filePart{})
	}
	return parts
}

// suffixLess orders "files2" before "files10"; non-numeric suffixes sort
// after numeric ones, lexically
func suffixLess(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimPrefix(a, fileKey))
	nb, errB := strconv.Atoi(strings.TrimPrefix(b, fileKey))
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
