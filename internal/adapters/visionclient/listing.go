package visionclient

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"binanceDataCollector/internal/domain"
	"binanceDataCollector/internal/ports"
)

const (
	archiveSuffix = ".zip"
	s3Namespace   = "http://s3.amazonaws.com/doc/2006-03-01/"
)

// namespacedListing matches the S3 response with its documented namespace.
type namespacedListing struct {
	XMLName  xml.Name `xml:"http://s3.amazonaws.com/doc/2006-03-01/ ListBucketResult"`
	Contents []struct {
		Key string `xml:"http://s3.amazonaws.com/doc/2006-03-01/ Key"`
	} `xml:"http://s3.amazonaws.com/doc/2006-03-01/ Contents"`
}

// plainListing matches the same document without a namespace qualifier.
type plainListing struct {
	XMLName  xml.Name `xml:"ListBucketResult"`
	Contents []struct {
		Key string `xml:"Key"`
	} `xml:"Contents"`
}

// parseListingKeys extracts every archive key from an S3 listing document.
// The namespaced form is tried first; zero matches is not an error, the
// unqualified form is tried before giving up.
func parseListingKeys(data []byte) ([]string, error) {
	var keys []string

	var ns namespacedListing
	nsErr := xml.Unmarshal(data, &ns)
	if nsErr == nil {
		for _, c := range ns.Contents {
			if strings.HasSuffix(c.Key, archiveSuffix) {
				keys = append(keys, c.Key)
			}
		}
	}
	if len(keys) > 0 {
		return keys, nil
	}

	var plain plainListing
	if err := xml.Unmarshal(data, &plain); err != nil {
		if nsErr != nil {
			return nil, fmt.Errorf("parsing listing response: %w", nsErr)
		}
		return nil, fmt.Errorf("parsing listing response: %w", err)
	}
	for _, c := range plain.Contents {
		if strings.HasSuffix(c.Key, archiveSuffix) {
			keys = append(keys, c.Key)
		}
	}
	return keys, nil
}

// refFromKey turns a bucket key like
// "data/spot/monthly/klines/BTCUSDT/4h/BTCUSDT-4h-2021-03.zip" into an
// ArchiveRef.
func refFromKey(key string) (domain.ArchiveRef, error) {
	name := strings.TrimSuffix(path.Base(key), archiveSuffix)
	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return domain.ArchiveRef{}, fmt.Errorf("unexpected archive name %q", name)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return domain.ArchiveRef{}, fmt.Errorf("unexpected year in archive name %q: %w", name, err)
	}
	month, err := strconv.Atoi(parts[3])
	if err != nil || month < 1 || month > 12 {
		return domain.ArchiveRef{}, fmt.Errorf("unexpected month in archive name %q", name)
	}
	return domain.ArchiveRef{
		Symbol:   parts[0],
		Interval: parts[1],
		Year:     year,
		Month:    time.Month(month),
	}, nil
}

// List queries the bucket-listing endpoint for all published monthly archives
// of one (symbol, interval) pair and returns them in ascending chronological
// order. Any failure (network, non-2xx status, parse) is returned to the
// caller, which is expected to fall back to deterministic generation.
func (c *Client) List(ctx context.Context, symbol, interval string) ([]domain.ArchiveRef, error) {
	op := "List " + symbol + " " + interval
	url := fmt.Sprintf("%s?delimiter=/&prefix=%s", c.baseURL, prefix(symbol, interval))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ports.ErrListingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s: %w", op, resp.Status, ports.ErrListingFailed)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", op, err)
	}

	keys, err := parseListingKeys(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ports.ErrListingFailed, err)
	}

	refs := make([]domain.ArchiveRef, 0, len(keys))
	for _, key := range keys {
		ref, err := refFromKey(key)
		if err != nil {
			c.logger.Warn(ctx, "Skipping unrecognized listing entry", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		refs = append(refs, ref)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Before(refs[j]) })

	c.logger.Info(ctx, "Archive listing retrieved", map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
		"archives": len(refs),
	})
	return refs, nil
}
