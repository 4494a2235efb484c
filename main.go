package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"interview-practice-server/internal/coach"
	appconfig "interview-practice-server/internal/config"
	"interview-practice-server/internal/domain"
	"interview-practice-server/internal/evaluator"
	"interview-practice-server/internal/extractor"
	"interview-practice-server/internal/llm"
	"interview-practice-server/internal/metrics"
	"interview-practice-server/internal/questions"
	"interview-practice-server/internal/registry"
	"interview-practice-server/internal/report"
	"interview-practice-server/internal/server"
	"interview-practice-server/internal/session"
	"interview-practice-server/internal/storage"
	"interview-practice-server/pkg/logger"
)

func main() {
	fmt.Println("🚀 Запуск Interview Practice Server...")

	// Загружаем переменные окружения (.env не обязателен)
	_ = godotenv.Load()

	logger.Setup()

	appCfg := appconfig.LoadAppConfig()

	// Загружаем конфигурацию интервью
	cfg, err := appconfig.Load("config/interview.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации интервью: %v", err)
	}

	// Инициализируем сервисы
	fmt.Println("🔧 Инициализация сервисов...")

	m := metrics.New()

	// Gemini не обязателен: без ключа все сервисы работают
	// на детерминированных фолбэках
	var llmClient *llm.Client
	if appCfg.Gemini.Configured() {
		llmClient, err = llm.New(context.Background(), appCfg.Gemini)
		if err != nil {
			log.Printf("⚠️ Ошибка инициализации Gemini: %v", err)
			log.Println("Сервер будет работать на фолбэках")
			llmClient = nil
		} else {
			llmClient.SetMetrics(m)
			fmt.Println("✅ Gemini клиент инициализирован")
		}
	} else {
		log.Println("⚠️ GEMINI_API_KEY не установлен, сервер работает на фолбэках")
	}

	store, err := storage.New(appCfg.Server.DataDir)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}

	candidates, savedSessions, err := store.Load()
	if err != nil {
		log.Printf("⚠️ Ошибка загрузки данных: %v", err)
		candidates = nil
		savedSessions = nil
	}

	registrySvc := registry.New()
	registrySvc.SetAll(candidates)
	registrySvc.SetOnChange(store.SaveCandidates)

	extractorSvc := extractor.New(llmClient)
	questionsSvc := questions.New(llmClient, cfg)
	evaluatorSvc := evaluator.New(llmClient, cfg)
	coachSvc := coach.New(llmClient)
	reportSvc := report.New()
	fmt.Println("✅ Сервисы инициализированы")

	// Завершенное интервью переносит итоги в реестр кандидатов
	onComplete := func(state session.State) {
		if state.Candidate == nil || state.Summary == nil {
			return
		}
		completed := domain.CandidateCompleted
		score := state.Summary.TotalScore
		registrySvc.Update(state.Candidate.ID, registry.Patch{
			Score:   &score,
			Status:  &completed,
			Summary: state.Summary,
			Answers: state.Answers,
		})
	}

	sessions := session.NewManager(questionsSvc, evaluatorSvc, m, onComplete, store.SaveSession)
	sessions.SetOnRemove(store.DeleteSession)
	sessions.RestoreAll(savedSessions)

	srv := server.New(appCfg, server.Services{
		Extractor: extractorSvc,
		Questions: questionsSvc,
		Evaluator: evaluatorSvc,
		Coach:     coachSvc,
		Registry:  registrySvc,
		Sessions:  sessions,
		Store:     store,
		Report:    reportSvc,
		Metrics:   m,
	})

	// Выводим информацию о конфигурации
	fmt.Println("\n📋 Конфигурация:")
	fmt.Printf("• Порт: %d\n", appCfg.Server.Port)
	fmt.Printf("• Вопросов в интервью: %d\n", cfg.TotalQuestions())
	fmt.Printf("• Кандидатов в реестре: %d\n", len(candidates))
	if llmClient != nil {
		fmt.Println("• Генерация и оценка: Gemini 🧠")
	} else {
		fmt.Println("• Генерация и оценка: фолбэки ⚠️")
	}

	go func() {
		fmt.Printf("\n🤖 Сервер запущен на :%d\n", appCfg.Server.Port)
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n⏳ Остановка сервера...")
	ctx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Ошибка остановки сервера: %v", err)
	}
	sessions.Close()
	if err := store.Flush(); err != nil {
		log.Printf("⚠️ Ошибка записи данных: %v", err)
	}
	if llmClient != nil {
		llmClient.Close()
	}
	fmt.Println("✅ Сервер остановлен")
}
