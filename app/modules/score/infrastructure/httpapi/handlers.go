package scorehttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Handlers serves leaderboard reads.
type Handlers struct {
	service scoreservice.Service
	logger  *slog.Logger
}

func NewHandlers(service scoreservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
	Deck  string `json:"deck,omitempty"`
}

// GetLeaderboard handles GET /v1/leaderboards?group=&deck=&start=&end=.
//
// deck may be repeated or comma separated. start defaults to 0 and end to start+10;
// a page never spans more than 100 ranks.
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	req, err := parseLeaderboardRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	board, err := h.service.GetLeaderboard(r.Context(), req)
	if err != nil {
		var notFound *scoredomain.DeckNotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: notFound.Error(), Deck: notFound.Name})
			return
		}
		var invalid *scoredomain.ValidationError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to read leaderboard", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to read leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseLeaderboardRequest(r *http.Request) (scoreservice.LeaderboardRequest, error) {
	q := r.URL.Query()
	req := scoreservice.LeaderboardRequest{
		GroupID: scoredomain.GroupID(strings.TrimSpace(q.Get("group"))),
	}

	for _, raw := range q["deck"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.DeckNames = append(req.DeckNames, name)
			}
		}
	}

	start, err := intParam(q.Get("start"), 0)
	if err != nil {
		return req, fmt.Errorf("invalid start: %w", err)
	}
	end, err := intParam(q.Get("end"), start+defaultPageSize)
	if err != nil {
		return req, fmt.Errorf("invalid end: %w", err)
	}
	if end-start > maxPageSize {
		end = start + maxPageSize
	}

	req.Start, req.End = start, end
	return req, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
