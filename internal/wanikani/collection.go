package wanikani

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/starford/wanikanji/internal/models"
)

// Collection is one page of a paginated listing.
type Collection[T any] struct {
	Object        string        `json:"object"`
	URL           string        `json:"url"`
	DataUpdatedAt *string       `json:"data_updated_at"`
	Data          []Resource[T] `json:"data"`
	TotalCount    int           `json:"total_count"`
	Pages         Pages         `json:"pages"`
}

// Resource wraps a single record with its identity.
type Resource[T any] struct {
	ID            int     `json:"id"`
	Object        string  `json:"object"`
	URL           string  `json:"url"`
	DataUpdatedAt *string `json:"data_updated_at"`
	Data          T       `json:"data"`
}

// Pages is the pagination block of a collection.
type Pages struct {
	PerPage     int     `json:"per_page"`
	NextURL     *string `json:"next_url"`
	PreviousURL *string `json:"previous_url"`
}

// Enveloped is satisfied by records that keep their resource metadata.
type Enveloped[T any] interface {
	*T
	SetResource(id int, object, url, dataUpdatedAt string)
}

// FetchAll walks the collection starting at startURL, following next_url
// verbatim until the server stops returning one, and returns every record
// in page order. Any failure aborts the walk and discards what was read.
func FetchAll[T any, PT Enveloped[T]](ctx context.Context, c *Client, startURL string) ([]T, error) {
	var (
		records []T
		total   int
		pages   int
		next    = &startURL
	)
	for next != nil {
		c.logger.Debug("wanikani: fetching page", slog.String("url", *next))

		var page Collection[T]
		if err := c.get(ctx, *next, &page); err != nil {
			return nil, err
		}
		pages++
		total = page.TotalCount

		for _, r := range page.Data {
			rec := r.Data
			updatedAt := ""
			if r.DataUpdatedAt != nil {
				updatedAt = *r.DataUpdatedAt
			}
			PT(&rec).SetResource(r.ID, r.Object, r.URL, updatedAt)
			records = append(records, rec)
		}
		next = page.Pages.NextURL
	}

	if records == nil {
		records = []T{}
	}
	if len(records) != total {
		c.logger.Warn("wanikani: record count differs from total_count",
			slog.Int("records", len(records)),
			slog.Int("total_count", total))
	}
	c.logger.Info("wanikani: collection fetched",
		slog.Int("records", len(records)),
		slog.Int("pages", pages))
	return records, nil
}

// SubjectsURL returns the first-page URL of the subjects listing for types.
func (c *Client) SubjectsURL(types string) string {
	q := url.Values{}
	q.Set("types", types)
	return c.baseURL + "/subjects?" + q.Encode()
}

// ListKanji fetches every kanji subject.
func (c *Client) ListKanji(ctx context.Context) ([]models.Kanji, error) {
	return FetchAll[models.Kanji](ctx, c, c.SubjectsURL(string(models.VariantKanji)))
}

// ListVocabulary fetches every vocabulary subject.
func (c *Client) ListVocabulary(ctx context.Context) ([]models.Vocabulary, error) {
	return FetchAll[models.Vocabulary](ctx, c, c.SubjectsURL(string(models.VariantVocabulary)))
}
