package ingestion

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// Поддерживаемые типы документов резюме
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// PDF не парсится: возвращается текст-заглушка, которая заведомо не
// совпадает ни с одним шаблоном полей, и чат-сбор запрашивает данные вручную
const pdfPlaceholder = "Resume uploaded - PDF format detected. Please provide your details below."

var (
	paragraphRe = regexp.MustCompile(`</w:p>|<w:br[^>]*/?>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
)

// ExtractText извлекает текст из документа по его content type
func ExtractText(contentType string, data []byte) (string, error) {
	switch normalizeContentType(contentType) {
	case MimePDF:
		return pdfPlaceholder, nil
	case MimeDOCX:
		return extractDocx(data)
	default:
		return "", fmt.Errorf("неподдерживаемый тип файла: %s", contentType)
	}
}

// Supported сообщает, принимается ли такой content type на загрузку
func Supported(contentType string) bool {
	switch normalizeContentType(contentType) {
	case MimePDF, MimeDOCX:
		return true
	}
	return false
}

func extractDocx(data []byte) (string, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("ошибка чтения DOCX: %w", err)
	}
	defer reader.Close()

	return wordMLToText(reader.Editable().GetContent()), nil
}

// wordMLToText превращает содержимое document.xml в плоский текст:
// границы параграфов становятся переводами строк, разметка отбрасывается
func wordMLToText(content string) string {
	content = paragraphRe.ReplaceAllString(content, "\n")
	content = tagRe.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}
