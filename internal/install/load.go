package install

import (
	"fmt"

	"github.com/starford/wanikanji/internal/apperr"
	"github.com/starford/wanikanji/internal/models"
	"github.com/starford/wanikanji/internal/snapshot"
)

// LoadRecords reads the snapshot of variant in fetch order. A variant that
// was never fetched yields an error wrapping apperr.ErrCacheMissing.
func LoadRecords(store snapshot.Store, variant models.Variant) ([]models.Record, error) {
	key := string(variant)
	switch variant {
	case models.VariantKanji:
		var kanji []models.Kanji
		found, err := store.Get(key, &kanji)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", apperr.ErrCacheMissing, key)
		}
		return models.KanjiRecords(kanji), nil

	case models.VariantVocabulary:
		var vocabulary []models.Vocabulary
		found, err := store.Get(key, &vocabulary)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", apperr.ErrCacheMissing, key)
		}
		return models.VocabularyRecords(vocabulary), nil
	}
	return nil, fmt.Errorf("install: unknown variant %q", variant)
}
