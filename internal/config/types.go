package config

// Config представляет конфигурацию интервью из YAML файла
type Config struct {
	InterviewConfig   InterviewConfig `yaml:"interview_config"`
	FallbackQuestions []QuestionSpec  `yaml:"fallback_questions"`
	Heuristics        []HeuristicTier `yaml:"heuristics"`
	FeedbackBands     []FeedbackBand  `yaml:"feedback_bands"`
}

// InterviewConfig содержит общие настройки интервью
type InterviewConfig struct {
	RoleProfile string     `yaml:"role_profile"`
	Tiers       []TierSpec `yaml:"tiers"`
}

// TierSpec описывает один уровень сложности: сколько вопросов и сколько секунд на ответ
type TierSpec struct {
	Difficulty string `yaml:"difficulty"`
	Count      int    `yaml:"count"`
	Seconds    int    `yaml:"seconds"`
}

// QuestionSpec представляет один запасной вопрос
type QuestionSpec struct {
	ID         string `yaml:"id"`
	Difficulty string `yaml:"difficulty"`
	Prompt     string `yaml:"prompt"`
	Seconds    int    `yaml:"seconds"`
}

// HeuristicTier описывает бонусы локальной оценки для одного уровня сложности
type HeuristicTier struct {
	Difficulty  string         `yaml:"difficulty"`
	LengthOver  int            `yaml:"length_over"`
	LengthBonus int            `yaml:"length_bonus"`
	Keywords    []KeywordGroup `yaml:"keywords"`
}

// KeywordGroup представляет группу ключевых слов с общим бонусом
type KeywordGroup struct {
	Words []string `yaml:"words"`
	Bonus int      `yaml:"bonus"`
}

// FeedbackBand представляет одну полосу оценок с готовой формулировкой фидбека.
// Message обязан содержать %d - туда подставляется числовая оценка.
type FeedbackBand struct {
	MinScore int    `yaml:"min_score"`
	Message  string `yaml:"message"`
}

// Методы для удобного доступа к конфигурации
func (c *Config) TotalQuestions() int {
	total := 0
	for _, tier := range c.InterviewConfig.Tiers {
		total += tier.Count
	}
	return total
}

func (c *Config) TierFor(difficulty string) (TierSpec, bool) {
	for _, tier := range c.InterviewConfig.Tiers {
		if tier.Difficulty == difficulty {
			return tier, true
		}
	}
	return TierSpec{}, false
}

func (c *Config) HeuristicFor(difficulty string) (HeuristicTier, bool) {
	for _, h := range c.Heuristics {
		if h.Difficulty == difficulty {
			return h, true
		}
	}
	return HeuristicTier{}, false
}
