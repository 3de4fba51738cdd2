package answer

import (
	"regexp"
	"strings"
)

var (
	sopReferencePattern = regexp.MustCompile(`\b([A-Za-z0-9\-_()\s]+(?:Rev\d+(?:Draft\d+)?)?[A-Za-z0-9\-_()\s]*\.(?:doc|docx|pdf))\b`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
)

// sopReferenceMarker 已格式化文本的标记，避免重复包裹
const sopReferenceMarker = `<span class="sop-reference-inline">`

// FormatSOPReferences 将回答中的 SOP 文件名引用包裹为行内引用标记
// 已包含标记的文本原样返回，防止二次处理
func FormatSOPReferences(text string) string {
	if text == "" {
		return text
	}
	if strings.Contains(text, sopReferenceMarker) {
		return text
	}
	return sopReferencePattern.ReplaceAllStringFunc(text, func(match string) string {
		clean := htmlTagPattern.ReplaceAllString(match, "")
		return sopReferenceMarker + clean + `</span>`
	})
}
