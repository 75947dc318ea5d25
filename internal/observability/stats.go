// Package observability keeps process-wide counters served on /stats.
package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	PagesFetched       uint64            `json:"pages_fetched"`
	FloorplansResolved uint64            `json:"floorplans_resolved"`
	CacheHits          uint64            `json:"cache_hits"`
	CacheMisses        uint64            `json:"cache_misses"`
	UploadsStored      uint64            `json:"uploads_stored"`
	ErrorsTotal        uint64            `json:"errors_total"`
	MatcherHits        map[string]uint64 `json:"matcher_hits,omitempty"`
	MailsSent          map[string]uint64 `json:"mails_sent,omitempty"`
	ErrorsByType       map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent  map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	pagesFetched       uint64
	floorplansResolved uint64
	cacheHits          uint64
	cacheMisses        uint64
	uploadsStored      uint64
	errorsTotal        uint64

	statsMu           sync.Mutex
	matcherHits       = map[string]uint64{}
	mailsSent         = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncPageFetched() {
	atomic.AddUint64(&pagesFetched, 1)
}

func IncFloorplanResolved() {
	atomic.AddUint64(&floorplansResolved, 1)
}

func IncCacheHit() {
	atomic.AddUint64(&cacheHits, 1)
}

func IncCacheMiss() {
	atomic.AddUint64(&cacheMisses, 1)
}

func IncUploadStored() {
	atomic.AddUint64(&uploadsStored, 1)
}

// IncMatcherHit records which extraction strategy recovered an identifier.
func IncMatcherHit(matcher string) {
	if matcher == "" {
		matcher = "unknown"
	}
	statsMu.Lock()
	matcherHits[matcher]++
	statsMu.Unlock()
}

func IncMailSent(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	statsMu.Lock()
	mailsSent[kind]++
	statsMu.Unlock()
}

func IncError(errType, component string) {
	if errType == "" {
		errType = "unknown"
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	matcherCopy := copyMap(matcherHits)
	mailsCopy := copyMap(mailsSent)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	return StatsSnapshot{
		PagesFetched:       atomic.LoadUint64(&pagesFetched),
		FloorplansResolved: atomic.LoadUint64(&floorplansResolved),
		CacheHits:          atomic.LoadUint64(&cacheHits),
		CacheMisses:        atomic.LoadUint64(&cacheMisses),
		UploadsStored:      atomic.LoadUint64(&uploadsStored),
		ErrorsTotal:        atomic.LoadUint64(&errorsTotal),
		MatcherHits:        matcherCopy,
		MailsSent:          mailsCopy,
		ErrorsByType:       errorsTypeCopy,
		ErrorsByComponent:  errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
