// Package core wires the funda extractors, the page fetcher, the FML
// client, and the cache into the floor-plan resolution flow.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattori/backend/internal/funda"
	"github.com/mattori/backend/internal/observability"
	"github.com/mattori/backend/internal/store"
)

// ErrCaptcha means funda served its anti-bot interstitial instead of the
// listing. Distinct from ErrNoFloorplan so the storefront can tell the user
// to retry later rather than give up.
var ErrCaptcha = errors.New("funda served a captcha interstitial")

// ErrNoFloorplan means the listing has no published floor plan. A normal
// outcome, not a fault.
var ErrNoFloorplan = errors.New("listing has no floor plan")

// PageFetcher downloads a listing page as raw HTML.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (string, error)
}

// DocumentFetcher downloads the floor-plan document for a project id.
type DocumentFetcher interface {
	Fetch(ctx context.Context, projectID string) (map[string]any, error)
}

// ListingCache stores successful resolutions keyed by normalized page URL.
type ListingCache interface {
	GetListing(ctx context.Context, pageURL string) (*store.Listing, error)
	UpsertListing(ctx context.Context, l store.Listing) error
}

type FloorplanService struct {
	pages    PageFetcher
	docs     DocumentFetcher
	cache    ListingCache
	cacheTTL time.Duration
}

func NewFloorplanService(pages PageFetcher, docs DocumentFetcher, cache ListingCache, cacheTTL time.Duration) *FloorplanService {
	return &FloorplanService{
		pages:    pages,
		docs:     docs,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Resolve turns a caller-supplied listing URL into the floor-plan document,
// enriched with the sale status and a listing summary when known. The FML
// document itself is always downloaded fresh; only the identifier, status,
// and summary are cached.
func (s *FloorplanService) Resolve(ctx context.Context, rawURL string) (map[string]any, error) {
	base := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	pageURL := funda.NormalizeListingURL(rawURL)

	var (
		projectID  string
		saleStatus string
		meta       funda.ListingMeta
	)

	if cached := s.cachedListing(ctx, pageURL); cached != nil {
		observability.IncCacheHit()
		projectID = cached.ProjectID
		saleStatus = cached.SaleStatus
		meta = funda.ListingMeta{Address: cached.Address, Image: cached.ImageURL}
	} else {
		observability.IncCacheMiss()
		var err error
		projectID, saleStatus, meta, err = s.resolveFromPages(ctx, base, pageURL)
		if err != nil {
			return nil, err
		}
		s.storeListing(ctx, pageURL, projectID, saleStatus, meta)
	}

	doc, err := s.docs.Fetch(ctx, projectID)
	if err != nil {
		observability.IncError(observability.ErrorNetwork, "fml")
		return nil, err
	}

	if saleStatus != "" {
		doc["sale_status"] = saleStatus
	}
	if !meta.IsEmpty() {
		doc["listing"] = meta
	}

	observability.IncFloorplanResolved()
	return doc, nil
}

// resolveFromPages fetches the listing and recovers the identifier, status,
// and summary from the raw HTML.
func (s *FloorplanService) resolveFromPages(ctx context.Context, base, pageURL string) (string, string, funda.ListingMeta, error) {
	var (
		saleStatus string
		meta       funda.ListingMeta
	)

	// The floor-plan media page carries the identifier but often a generic
	// <title>, so when normalization rewrote the URL the detail root is
	// fetched first for status and summary. Best effort only.
	if pageURL != base {
		if html, err := s.pages.FetchPage(ctx, base); err == nil {
			observability.IncPageFetched()
			if st, ok := funda.ExtractSaleStatus(html); ok {
				saleStatus = st
			}
			meta = funda.ExtractListingMeta(html)
		}
	}

	html, err := s.pages.FetchPage(ctx, pageURL)
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), "funda")
		return "", "", meta, fmt.Errorf("fetch listing page: %w", err)
	}
	observability.IncPageFetched()

	if funda.IsCaptcha(html) {
		observability.IncError(observability.ErrorCaptcha, "funda")
		return "", "", meta, ErrCaptcha
	}

	if saleStatus == "" {
		if st, ok := funda.ExtractSaleStatus(html); ok {
			saleStatus = st
		}
	}
	if meta.IsEmpty() {
		meta = funda.ExtractListingMeta(html)
	}
	if meta.Address == "" {
		meta.Address = funda.AddressFromURL(base)
	}

	projectID, matcher, ok := funda.ExtractProjectID(html)
	if !ok {
		return "", "", meta, ErrNoFloorplan
	}
	observability.IncMatcherHit(matcher)

	return projectID, saleStatus, meta, nil
}

func (s *FloorplanService) cachedListing(ctx context.Context, pageURL string) *store.Listing {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.GetListing(ctx, pageURL)
	if err != nil {
		observability.IncError(observability.ErrorStore, "cache")
		slog.Warn("listing cache lookup failed", "url", pageURL, "error", err)
		return nil
	}
	return cached
}

func (s *FloorplanService) storeListing(ctx context.Context, pageURL, projectID, saleStatus string, meta funda.ListingMeta) {
	if s.cache == nil {
		return
	}
	err := s.cache.UpsertListing(ctx, store.Listing{
		PageURL:    pageURL,
		ProjectID:  projectID,
		SaleStatus: saleStatus,
		Address:    meta.Address,
		ImageURL:   meta.Image,
		ExpiresAt:  time.Now().Add(s.cacheTTL),
	})
	if err != nil {
		observability.IncError(observability.ErrorStore, "cache")
		slog.Warn("listing cache store failed", "url", pageURL, "error", err)
	}
}
