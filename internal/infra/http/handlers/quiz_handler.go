package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/grovelane/miniaudit-api/internal/usecase"
)

type QuizHandler struct {
	submit      *usecase.SubmitQuizUseCase
	rateLimiter *RateLimiter
}

func NewQuizHandler(submit *usecase.SubmitQuizUseCase) *QuizHandler {
	return &QuizHandler{
		submit:      submit,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP
	}
}

type SubmitQuizResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	LeadID    string `json:"leadId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// HandleSubmit accepts the mini-audit quiz, creates the lead and fires
// generation. Responds before any report work happens.
func (h *QuizHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeJSON(w, http.StatusTooManyRequests, SubmitQuizResponse{
			Success: false,
			Message: "Too many requests. Please try again later.",
		})
		return
	}

	var input usecase.SubmitQuizInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitQuizResponse{
			Success: false,
			Message: "Invalid JSON",
		})
		return
	}

	output, err := h.submit.Execute(ctx, input)
	if err != nil {
		code := http.StatusInternalServerError
		if usecase.IsDomainError(err) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, SubmitQuizResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitQuizResponse{
		Success:   true,
		Message:   output.Msg,
		LeadID:    output.LeadID,
		RequestID: output.RequestID,
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
