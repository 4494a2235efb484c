package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"interview-practice-server/internal/llm"
	"interview-practice-server/internal/prompts"
)

// maxScanBytes ограничивает объем сканируемого текста:
// документы больше не гарантируют полный проход
const maxScanBytes = 200 * 1024

// nameScanLines - сколько первых непустых строк просматривается в поиске имени
const nameScanLines = 8

// Fields представляет контактные поля, извлеченные из резюме.
// Любое поле может быть пустым - это не ошибка, а сигнал для чат-сбора.
type Fields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

	// Шаблоны строк-кандидатов на имя: Word Word, Word M. Word, Word Word Word
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+$`),
		regexp.MustCompile(`^[A-Z][a-z]+ [A-Z]\. [A-Z][a-z]+$`),
		regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+ [A-Z][a-z]+$`),
	}
	headerWordRe = regexp.MustCompile(`(?i)\b(resume|cv)\b`)

	validNameRe  = regexp.MustCompile(`^[A-Za-z\s.]+$`)
	validEmailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// Service представляет сервис извлечения контактных полей
type Service struct {
	llmClient *llm.Client
}

// New создает новый сервис экстрактора.
// llmClient может быть nil - тогда работает только regex-путь.
func New(llmClient *llm.Client) *Service {
	return &Service{llmClient: llmClient}
}

// Extract извлекает поля из сырого текста резюме. Никогда не возвращает
// ошибку: несовпавшие поля остаются пустыми строками.
func (s *Service) Extract(text string) Fields {
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}

	return Fields{
		Name:  extractName(text),
		Email: extractEmail(text),
		Phone: extractPhone(text),
	}
}

// ExtractWithFallback выполняет regex-извлечение и добирает через Gemini
// только пустые или невалидные поля. Проверенный regex-результат никогда
// не перезаписывается. Сбой AI оставляет поле пустым - это не фатально.
func (s *Service) ExtractWithFallback(ctx context.Context, text string) Fields {
	fields := s.Extract(text)

	if !needsFallback(fields) || s.llmClient == nil {
		return fields
	}

	aiFields, err := s.extractWithAI(ctx, text)
	if err != nil {
		slog.Warn("AI-извлечение полей не удалось", "err", err)
		return fields
	}

	if !ValidName(fields.Name) && ValidName(aiFields.Name) {
		fields.Name = strings.TrimSpace(aiFields.Name)
	}
	if !ValidEmail(fields.Email) && ValidEmail(aiFields.Email) {
		fields.Email = aiFields.Email
	}
	if !ValidPhone(fields.Phone) && ValidPhone(aiFields.Phone) {
		fields.Phone = FormatPhone(aiFields.Phone)
	}

	return fields
}

// MissingFields возвращает список полей, которые так и остались
// пустыми или невалидными
func MissingFields(fields Fields) []string {
	missing := []string{}
	if !ValidName(fields.Name) {
		missing = append(missing, "name")
	}
	if !ValidEmail(fields.Email) {
		missing = append(missing, "email")
	}
	if !ValidPhone(fields.Phone) {
		missing = append(missing, "phone")
	}
	return missing
}

func needsFallback(fields Fields) bool {
	return !ValidName(fields.Name) || !ValidEmail(fields.Email) || !ValidPhone(fields.Phone)
}

func (s *Service) extractWithAI(ctx context.Context, text string) (Fields, error) {
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}

	response, err := s.llmClient.GenerateWithRetry(ctx, "", prompts.FieldExtraction(text))
	if err != nil {
		return Fields{}, err
	}

	jsonStr, err := llm.ExtractJSONObject(response)
	if err != nil {
		return Fields{}, err
	}

	var fields Fields
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		return Fields{}, fmt.Errorf("ошибка парсинга JSON полей: %w", err)
	}

	return fields, nil
}

func extractEmail(text string) string {
	return emailRe.FindString(text)
}

// extractPhone находит первый телефон с 10 или 11 цифрами и приводит его
// к каноническому виду. Совпадения внутри более длинных цифровых
// последовательностей и с другим количеством цифр отбрасываются.
func extractPhone(text string) string {
	for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]

		// Кусок более длинной цифровой последовательности - не телефон
		if start > 0 && isDigit(text[start-1]) {
			continue
		}
		if end < len(text) && isDigit(text[end]) {
			continue
		}

		digits := stripDigits(text[start:end])
		if len(digits) == 10 || (len(digits) == 11 && digits[0] == '1') {
			return formatDigits(digits)
		}
	}
	return ""
}

func extractName(text string) string {
	lines := nonEmptyLines(text)

	limit := min(nameScanLines, len(lines))
	for i := 0; i < limit; i++ {
		line := lines[i]
		if len(line) >= 50 {
			continue
		}
		if strings.Contains(line, "@") || phoneRe.MatchString(line) || headerWordRe.MatchString(line) {
			continue
		}
		for _, pattern := range namePatterns {
			if pattern.MatchString(line) {
				return line
			}
		}
	}

	// Запасной путь: первая из трех верхних строк, где 2-3 слова
	// целиком буквенные и с заглавной
	limit = min(3, len(lines))
	for i := 0; i < limit; i++ {
		line := lines[i]
		if len(line) >= 30 {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 3 {
			continue
		}
		allCapitalized := true
		for _, word := range words {
			if !isCapitalizedWord(word) {
				allCapitalized = false
				break
			}
		}
		if allCapitalized {
			return line
		}
	}

	return ""
}

// ValidName проверяет правдоподобность имени
func ValidName(name string) bool {
	return len(name) > 2 && len(name) < 50 && validNameRe.MatchString(name)
}

// ValidEmail проверяет форму адреса local@domain.tld
func ValidEmail(email string) bool {
	return validEmailRe.MatchString(email)
}

// ValidPhone принимает номера с 10 цифрами или 11 с ведущей единицей
func ValidPhone(phone string) bool {
	digits := stripDigits(phone)
	return len(digits) == 10 || (len(digits) == 11 && digits[0] == '1')
}

// FormatPhone приводит валидный номер к каноническому виду.
// Невалидный вход возвращается как есть.
func FormatPhone(phone string) string {
	digits := stripDigits(phone)
	if len(digits) == 10 || (len(digits) == 11 && digits[0] == '1') {
		return formatDigits(digits)
	}
	return phone
}

func formatDigits(digits string) string {
	if len(digits) == 11 {
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	}
	return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:])
}

func stripDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isCapitalizedWord(word string) bool {
	for i, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
		if i == 0 && !unicode.IsUpper(r) {
			return false
		}
	}
	return word != ""
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
