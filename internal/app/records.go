package app

import (
	"context"
	"slices"
	"time"

	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// MaxRecords caps the persisted record list.
const MaxRecords = 50

// RecordStore keeps generation records newest first.
type RecordStore struct {
	store         domain.KVStore
	clock         domain.Clock
	log           logging.Logger
	reseedMissing bool
}

// NewRecordStore creates a record store. With reseedMissing set, a
// collection lacking any record type is replaced by the sample records.
func NewRecordStore(store domain.KVStore, reseedMissing bool, clock domain.Clock, log logging.Logger) *RecordStore {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &RecordStore{store: store, clock: clock, log: log, reseedMissing: reseedMissing}
}

// List returns the stored records. Unreadable data yields an empty list.
func (s *RecordStore) List(ctx context.Context) ([]domain.GenerationRecord, error) {
	var records []domain.GenerationRecord
	if _, err := loadJSON(ctx, s.store, domain.KeyGenerationRecords, &records); err != nil {
		s.log.Warn(ctx, "record list unreadable, starting empty", "error", err)
		return []domain.GenerationRecord{}, nil
	}
	if records == nil {
		records = []domain.GenerationRecord{}
	}
	return records, nil
}

// Append inserts rec at the front and drops anything past MaxRecords.
func (s *RecordStore) Append(ctx context.Context, rec domain.GenerationRecord) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.clock.Now()
	}
	records = slices.Insert(records, 0, rec)
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	return saveJSON(ctx, s.store, domain.KeyGenerationRecords, records)
}

// Clear removes every record.
func (s *RecordStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, domain.KeyGenerationRecords)
}

// SeedDefaultsIfMissing writes the sample records when the list is empty
// or, if reseeding is enabled, when any record type is absent. It reports
// whether the samples were written.
func (s *RecordStore) SeedDefaultsIfMissing(ctx context.Context) (bool, error) {
	records, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	switch {
	case len(records) == 0:
		s.log.Info(ctx, "no records stored, writing samples")
	case s.reseedMissing && !hasAllTypes(records):
		s.log.Warn(ctx, "record types missing, replacing records with samples", "discarded", len(records))
	default:
		return false, nil
	}
	if err := saveJSON(ctx, s.store, domain.KeyGenerationRecords, SampleRecords(s.clock.Now())); err != nil {
		return false, err
	}
	return true, nil
}

func hasAllTypes(records []domain.GenerationRecord) bool {
	for _, t := range domain.RecordTypes {
		if !slices.ContainsFunc(records, func(r domain.GenerationRecord) bool { return r.Type == t }) {
			return false
		}
	}
	return true
}

// SampleRecords returns one record of each type, stamped relative to now.
func SampleRecords(now time.Time) []domain.GenerationRecord {
	return []domain.GenerationRecord{
		{
			Type:      domain.RecordText,
			Prompt:    "寫一篇女鞋產品介紹文案",
			Result:    sampleTextResult,
			Timestamp: now.Add(-1 * time.Hour),
		},
		{
			Type:      domain.RecordImage,
			Prompt:    "生成一張女鞋產品宣傳海報",
			Result:    `<img src="../img/valentines.png" alt="女鞋產品宣傳海報"><p><strong>圖片生成完成：</strong>基於您的提示詞「生成一張女鞋產品宣傳海報」</p>`,
			Timestamp: now.Add(-2 * time.Hour),
		},
		{
			Type:      domain.RecordSampling,
			Prompt:    "依照上傳的鞋款設計打樣",
			Result:    `<img src="` + SamplingPlaceholderURL + `" alt="打樣結果"><p>` + SamplingResultText("依照上傳的鞋款設計打樣") + `</p>`,
			Timestamp: now.Add(-3 * time.Hour),
		},
	}
}

const sampleTextResult = `基於您的需求，AI生成了以下女鞋產品介紹文案：

👠 東笙實業 - 優質女鞋系列

產品特色：
• 精選優質皮革，柔軟舒適
• 時尚設計風格，展現女性魅力
• 多種尺碼選擇，貼合腳型
• 精湛工藝製作，品質保證
• 多種顏色款式，滿足不同需求

適用場合：
適合各種場合穿著，無論是正式商務、休閒聚會還是特殊活動，都能展現您的優雅氣質。讓每一步都充滿自信與魅力。

保養建議：
• 定期清潔保養，延長使用壽命
• 避免潮濕環境存放
• 使用專用鞋撐保持鞋型

聯繫我們：
東笙實業 - 您的專業女鞋合作夥伴`
