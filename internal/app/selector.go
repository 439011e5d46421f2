package app

import (
	"fmt"
	"html"
	"strings"

	"dashboard/internal/domain"
)

// SamplingPlaceholderURL is the image returned for demo sampling requests.
const SamplingPlaceholderURL = "https://via.placeholder.com/400x300/28a745/ffffff?text=Sampling+Result"

// Selector picks canned responses for prompts.
type Selector struct {
	catalog *Catalog
}

// NewSelector creates a selector over c.
func NewSelector(c *Catalog) *Selector {
	return &Selector{catalog: c}
}

// Select returns the first example of kind whose keywords occur in prompt,
// case-insensitively. Text examples need one keyword, image examples two.
func (s *Selector) Select(prompt string, kind domain.ExampleKind) (*domain.DemoExample, bool) {
	examples, need := s.catalog.Text, 1
	if kind == domain.ExampleImage {
		examples, need = s.catalog.Image, 2
	}
	lower := strings.ToLower(prompt)
	for i := range examples {
		hits := 0
		for _, kw := range examples[i].Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits >= need {
			return &examples[i], true
		}
	}
	return nil, false
}

// Respond builds the demo result for prompt: an image match first, then a
// text match, then the generic fallback.
func (s *Selector) Respond(prompt string) (domain.RecordType, string) {
	if ex, ok := s.Select(prompt, domain.ExampleImage); ok {
		desc := strings.ReplaceAll(ex.Description, "{prompt}", prompt)
		return domain.RecordImage, ImageMarkup(ex.ImagePath, ex.Title, desc)
	}
	if ex, ok := s.Select(prompt, domain.ExampleText); ok {
		return domain.RecordText, strings.ReplaceAll(ex.Content, "{prompt}", prompt)
	}
	return domain.RecordText, FallbackText(prompt)
}

// ImageMarkup renders an image result the way records store it.
func ImageMarkup(src, alt, caption string) string {
	return fmt.Sprintf(`<img src="%s" alt="%s"><p><strong>%s</strong></p>`,
		html.EscapeString(src), html.EscapeString(alt), html.EscapeString(caption))
}

// SamplingResultText is the caption of a sampling result.
func SamplingResultText(prompt string) string {
	return "打樣結果：基於您的提示詞「" + prompt + "」和上傳的圖片，AI 生成了打樣結果。"
}

// FallbackText is returned when no example matches prompt.
func FallbackText(prompt string) string {
	return `基於您的提示詞「` + prompt + `」，AI 生成了以下內容：

📝 生成結果

您的提示詞：` + prompt + `

生成內容：
這是一個基於您輸入的提示詞生成的示例內容。系統會根據您的需求提供相應的文字或圖片內容。

如需更精確的結果，請嘗試使用更具體的關鍵詞，如：
• 女鞋、鞋子、鞋類、高跟鞋
• 文案、廣告、宣傳
• 產品、商品、介紹
• 圖片、圖像、照片
• 設計、標誌、圖標

聯繫我們：
東笙實業 - 您的專業合作夥伴`
}
