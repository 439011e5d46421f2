package domain

import (
	"html"
	"regexp"
	"time"
)

// RecordType is the kind of generation that produced a record.
type RecordType string

const (
	RecordText     RecordType = "text"
	RecordImage    RecordType = "image"
	RecordSampling RecordType = "sampling"
)

// RecordTypes lists every record type in display order.
var RecordTypes = []RecordType{RecordText, RecordImage, RecordSampling}

// Label returns the zh-TW label shown in the records list.
func (t RecordType) Label() string {
	switch t {
	case RecordText:
		return "文字生成"
	case RecordImage:
		return "圖片生成"
	case RecordSampling:
		return "打樣生成"
	}
	return string(t)
}

// GenerationRecord is one logged generation event.
type GenerationRecord struct {
	Type      RecordType `json:"type"`
	Prompt    string     `json:"prompt"`
	Result    string     `json:"result"`
	Timestamp time.Time  `json:"timestamp"`
}

var srcAttr = regexp.MustCompile(`src="([^"]+)"`)

// ImageSource extracts the first src attribute from an image or sampling
// result. It returns "" for text records or markup without an image.
func (r GenerationRecord) ImageSource() string {
	if r.Type == RecordText {
		return ""
	}
	m := srcAttr.FindStringSubmatch(r.Result)
	if m == nil {
		return ""
	}
	return m[1]
}

var markupTag = regexp.MustCompile(`<[^>]*>`)

// PlainResult returns the result with markup removed.
func (r GenerationRecord) PlainResult() string {
	return html.UnescapeString(markupTag.ReplaceAllString(r.Result, ""))
}
