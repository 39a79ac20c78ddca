package utils

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const fallbackFileBase = "file"

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// lastStamp - последний выданный штамп, гарантирует строго возрастающие значения в процессе.
var lastStamp atomic.Int64

// Slugify: "Rapport d'Audit (V2)" -> "rapport-d-audit-v2"
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeFileName строит безопасное для хранилища имя вида <base>-<stamp>.<ext>.
// "Plan Inspection.PDF" -> "plan-inspection-1741948800000.pdf"
func SanitizeFileName(name string, now time.Time) string {
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}

	base = Slugify(base)
	if base == "" {
		base = fallbackFileBase
	}
	ext = Slugify(ext)

	res := base + "-" + strconv.FormatInt(nextStamp(now), 10)
	if ext != "" {
		res += "." + ext
	}
	return res
}

// nextStamp возвращает миллисекунды now, но не меньше предыдущего штампа + 1.
func nextStamp(now time.Time) int64 {
	candidate := now.UnixMilli()
	for {
		prev := lastStamp.Load()
		next := candidate
		if next <= prev {
			next = prev + 1
		}
		if lastStamp.CompareAndSwap(prev, next) {
			return next
		}
	}
}
