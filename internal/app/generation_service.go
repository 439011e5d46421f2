package app

import (
	"context"
	"strings"
	"time"

	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// Generation input messages.
const (
	MsgPromptRequired         = "請輸入提示詞"
	MsgSamplingPromptRequired = "請輸入打樣提示詞"
	MsgImagesRequired         = "請先上傳圖片"
)

// DefaultGenerationDelay is the artificial latency of demo responses.
const DefaultGenerationDelay = 2 * time.Second

// SessionSource exposes the live session to services that call the relay.
type SessionSource interface {
	Current(ctx context.Context) (*domain.Session, error)
}

// GenerationService produces results and logs them to the record store.
type GenerationService struct {
	selector *Selector
	records  *RecordStore
	relay    RelayClient
	sessions SessionSource
	delay    time.Duration
	clock    domain.Clock
	log      logging.Logger
}

// NewGenerationService creates a generation service. With a nil relay,
// results come from the selector after delay.
func NewGenerationService(selector *Selector, records *RecordStore, relay RelayClient, sessions SessionSource, delay time.Duration, clock domain.Clock, log logging.Logger) *GenerationService {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &GenerationService{
		selector: selector,
		records:  records,
		relay:    relay,
		sessions: sessions,
		delay:    delay,
		clock:    clock,
		log:      log,
	}
}

// GenerateText produces a text or image result for prompt.
func (s *GenerationService) GenerateText(ctx context.Context, prompt string) (domain.GenerationRecord, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.GenerationRecord{}, domain.NewValidationError(MsgPromptRequired)
	}

	var (
		typ    domain.RecordType
		result string
		err    error
	)
	if s.relay != nil {
		typ, result, err = s.remoteText(ctx, prompt)
	} else {
		if err = s.wait(ctx); err == nil {
			typ, result = s.selector.Respond(prompt)
		}
	}
	if err != nil {
		return domain.GenerationRecord{}, err
	}
	return s.save(ctx, typ, prompt, result)
}

// GenerateSampling produces a sampling result from prompt and images.
func (s *GenerationService) GenerateSampling(ctx context.Context, prompt string, images []string) (domain.GenerationRecord, error) {
	prompt = strings.TrimSpace(prompt)
	var problems []string
	if prompt == "" {
		problems = append(problems, MsgSamplingPromptRequired)
	}
	if len(images) == 0 {
		problems = append(problems, MsgImagesRequired)
	}
	if len(problems) > 0 {
		return domain.GenerationRecord{}, domain.NewValidationError(problems...)
	}

	src := SamplingPlaceholderURL
	if s.relay != nil {
		token, err := s.token(ctx)
		if err != nil {
			return domain.GenerationRecord{}, err
		}
		if src, err = s.relay.GenerateImage(ctx, token, prompt); err != nil {
			return domain.GenerationRecord{}, err
		}
	} else if err := s.wait(ctx); err != nil {
		return domain.GenerationRecord{}, err
	}
	result := ImageMarkup(src, "Sampling Result", SamplingResultText(prompt))
	return s.save(ctx, domain.RecordSampling, prompt, result)
}

func (s *GenerationService) remoteText(ctx context.Context, prompt string) (domain.RecordType, string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", "", err
	}
	if ex, ok := s.selector.Select(prompt, domain.ExampleImage); ok {
		url, err := s.relay.GenerateImage(ctx, token, prompt)
		if err != nil {
			return "", "", err
		}
		return domain.RecordImage, ImageMarkup(url, ex.Title, prompt), nil
	}
	text, err := s.relay.GenerateText(ctx, token, prompt)
	if err != nil {
		return "", "", err
	}
	return domain.RecordText, text, nil
}

func (s *GenerationService) token(ctx context.Context) (string, error) {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

func (s *GenerationService) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *GenerationService) save(ctx context.Context, typ domain.RecordType, prompt, result string) (domain.GenerationRecord, error) {
	rec := domain.GenerationRecord{Type: typ, Prompt: prompt, Result: result, Timestamp: s.clock.Now()}
	if err := s.records.Append(ctx, rec); err != nil {
		return domain.GenerationRecord{}, err
	}
	s.log.Info(ctx, "generation recorded", "type", typ)
	return rec, nil
}
