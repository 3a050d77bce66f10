//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	e2eUserID      = "e2e-student"
	e2eCourseID    = "e2e-course"
)

var (
	baseURL   string
	userToken string
	sessionID string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		fmt.Println("JWT_SECRET must match the server under test")
		os.Exit(1)
	}
	token, err := service.NewAuthService(cfg).GenerateToken(e2eUserID, time.Hour)
	if err != nil {
		fmt.Printf("Token failed: %v\n", err)
		os.Exit(1)
	}
	userToken = token

	if cfg.StoreDriver == config.StoreDriverPostgres {
		if err := cleanSessions(cfg.DatabaseURL); err != nil {
			fmt.Printf("Setup failed: %v\n", err)
			os.Exit(1)
		}
	}

	os.Exit(m.Run())
}

// cleanSessions removes sessions left by earlier runs so start creates a
// fresh one.
func cleanSessions(dbURL string) error {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, `DELETE FROM mock_test_sessions WHERE user_id = $1`, e2eUserID); err != nil {
		return fmt.Errorf("cleanup mock_test_sessions: %w", err)
	}
	return nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestE2EFlow(t *testing.T) {
	t.Run("Start", func(t *testing.T) {
		resp, err := post("/mocktests/start", map[string]string{"courseId": e2eCourseID, "courseTitle": "Go Concurrency"}, userToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		raw := readBody(resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, raw)
		}
		if strings.Contains(raw, "correctIndex") {
			t.Fatal("answer key leaked in start response")
		}

		var view model.SessionView
		decodeData(t, raw, &view)
		if len(view.Questions) != model.QuestionsPerTest {
			t.Fatalf("expected %d questions, got %d", model.QuestionsPerTest, len(view.Questions))
		}
		sessionID = view.ID.String()
	})

	t.Run("Resume", func(t *testing.T) {
		resp, err := post("/mocktests/start", map[string]string{"courseId": e2eCourseID, "courseTitle": "Go Concurrency"}, userToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var view model.SessionView
		decodeData(t, readBody(resp), &view)
		if view.ID.String() != sessionID {
			t.Fatalf("expected resumed session %s, got %s", sessionID, view.ID)
		}
	})

	t.Run("Answer", func(t *testing.T) {
		for _, sel := range []int{1, 3} {
			resp, err := post("/mocktests/answer", map[string]interface{}{"sessionId": sessionID, "questionIndex": 0, "selectedIndex": sel}, userToken)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
			}
			resp.Body.Close()
		}

		resp, err := get("/mocktests/session/"+sessionID, userToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var view model.SessionView
		decodeData(t, readBody(resp), &view)
		if len(view.Answers) != 1 || view.Answers[0].SelectedIndex != 3 {
			t.Fatalf("expected the last answer to win, got %+v", view.Answers)
		}
	})

	var first model.ScoreResult
	t.Run("Submit", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			resp, err := post("/mocktests/submit", map[string]string{"sessionId": sessionID}, userToken)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			raw := readBody(resp)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status %d: %s", resp.StatusCode, raw)
			}
			var result model.ScoreResult
			decodeData(t, raw, &result)
			if i == 0 {
				first = result
			} else if result != first {
				t.Fatalf("submit is not idempotent: %+v then %+v", first, result)
			}
		}
		if first.Status != model.MockTestStatusSubmitted {
			t.Fatalf("expected submitted, got %s", first.Status)
		}
	})

	t.Run("AnswerAfterSubmit", func(t *testing.T) {
		resp, err := post("/mocktests/answer", map[string]interface{}{"sessionId": sessionID, "questionIndex": 1, "selectedIndex": 0}, userToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	t.Run("LastResult", func(t *testing.T) {
		resp, err := get("/mocktests/last/"+e2eCourseID, userToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var summary model.ScoreSummary
		decodeData(t, readBody(resp), &summary)
		if summary.Score != first.Score {
			t.Fatalf("expected last score %d, got %d", first.Score, summary.Score)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		resp, err := get("/mocktests/last/"+e2eCourseID, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest("POST", baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// Start waits on the generator.
	client := &http.Client{Timeout: 60 * time.Second}
	return client.Do(req)
}

func get(path string, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeData(t *testing.T, raw string, v interface{}) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if env.Error != nil {
		t.Fatalf("unexpected error %s: %s", env.Error.Code, raw)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("json decode data: %v", err)
	}
}
