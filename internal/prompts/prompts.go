package prompts

import (
	"fmt"
	"strings"

	"interview-practice-server/internal/config"
	"interview-practice-server/internal/domain"
)

// QuestionGeneration создает промпт генерации вопросов интервью.
// Модель обязана вернуть JSON с ровно тем планом, который задан конфигурацией.
func QuestionGeneration(cfg *config.Config) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Generate %d interview questions for a %s position.\n",
		cfg.TotalQuestions(), cfg.InterviewConfig.RoleProfile))
	prompt.WriteString(fmt.Sprintf("Create exactly %d questions with the following structure:\n", cfg.TotalQuestions()))
	for _, tier := range cfg.InterviewConfig.Tiers {
		prompt.WriteString(fmt.Sprintf("- %d %s questions (%d seconds each)\n",
			tier.Count, tier.Difficulty, tier.Seconds))
	}

	prompt.WriteString("\nReturn the questions in this JSON format:\n")
	prompt.WriteString("{\n  \"questions\": [\n")
	for _, tier := range cfg.InterviewConfig.Tiers {
		for i := 1; i <= tier.Count; i++ {
			prompt.WriteString(fmt.Sprintf(`    {"id": "%s-%d", "difficulty": "%s", "prompt": "Question text here", "seconds": %d},`,
				tier.Difficulty, i, tier.Difficulty, tier.Seconds))
			prompt.WriteString("\n")
		}
	}
	prompt.WriteString("  ]\n}\n\n")

	prompt.WriteString("Focus on React, Node.js, JavaScript, TypeScript, databases, and full-stack development concepts.\n")
	prompt.WriteString("Make questions practical and relevant to real-world development scenarios.\n")
	prompt.WriteString("Return ONLY the JSON object, no additional text.")

	return prompt.String()
}

// Evaluation создает промпт проверки одного ответа
func Evaluation(question domain.Question, answer string) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert technical interviewer evaluating a candidate's answer for a full-stack developer position.\n\n")
	prompt.WriteString(fmt.Sprintf("Question: %q\n", question.Prompt))
	prompt.WriteString(fmt.Sprintf("Difficulty: %s\n", question.Difficulty))
	prompt.WriteString(fmt.Sprintf("Time Limit: %d seconds\n\n", question.Seconds))
	prompt.WriteString(fmt.Sprintf("Candidate's Answer: %q\n\n", answer))

	prompt.WriteString("Please evaluate this answer and provide:\n")
	prompt.WriteString("1. A score from 1-10 (where 10 is excellent)\n")
	prompt.WriteString("2. Constructive feedback\n\n")
	prompt.WriteString("Consider:\n")
	prompt.WriteString("- Technical accuracy and depth\n")
	prompt.WriteString("- Practical application of concepts\n")
	prompt.WriteString("- Communication clarity\n")
	prompt.WriteString("- Relevance to the question\n")
	prompt.WriteString("- Understanding of best practices\n\n")

	prompt.WriteString("Return your evaluation in this JSON format:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"score\": 8,\n")
	prompt.WriteString("  \"feedback\": \"Your feedback here explaining what was good and what could be improved\"\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("Be encouraging but honest. Provide specific, actionable feedback.")

	return prompt.String()
}

// FieldExtraction создает промпт извлечения контактных полей из текста резюме
func FieldExtraction(resumeText string) string {
	var prompt strings.Builder

	prompt.WriteString("Extract the candidate's contact details from this resume text.\n\n")
	prompt.WriteString("Return the result in this JSON format:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"name\": \"full name, or empty string if not found\",\n")
	prompt.WriteString("  \"email\": \"email address, or empty string if not found\",\n")
	prompt.WriteString("  \"phone\": \"phone number, or empty string if not found\"\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("Do not guess: return an empty string for any field the text does not contain.\n")
	prompt.WriteString("Return ONLY the JSON object, no additional text.\n\n")
	prompt.WriteString("Resume text:\n")
	prompt.WriteString(resumeText)

	return prompt.String()
}

// Coach создает промпт для советов по подготовке к интервью
func Coach(message string) string {
	var prompt strings.Builder

	prompt.WriteString("You are an AI interview coach helping candidates prepare for full-stack developer interviews.\n\n")
	prompt.WriteString(fmt.Sprintf("The candidate has asked: %q\n\n", message))
	prompt.WriteString("Provide helpful, encouraging, and practical advice for interview preparation. Focus on:\n")
	prompt.WriteString("- Technical concepts (React, Node.js, JavaScript, TypeScript)\n")
	prompt.WriteString("- Interview best practices\n")
	prompt.WriteString("- Common interview questions and how to answer them\n")
	prompt.WriteString("- Tips for demonstrating problem-solving skills\n\n")
	prompt.WriteString("Keep your response concise (2-3 sentences) and actionable.")

	return prompt.String()
}
