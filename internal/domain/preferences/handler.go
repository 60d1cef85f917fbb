package preferences

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medipet/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/preferences", func(pr chi.Router) {
		pr.Get("/", getPreferencesHandler(svc))
		pr.Patch("/", updatePreferencesHandler(svc))
	})
}

type mealTimesPayload struct {
	Breakfast *string `json:"breakfast"`
	Lunch     *string `json:"lunch"`
	Dinner    *string `json:"dinner"`
}

type updatePreferencesRequest struct {
	WakeTime  *string `json:"wake_time"`
	SleepTime *string `json:"sleep_time"`

	MealTimes *mealTimesPayload `json:"meal_times"`

	NotificationEnabled *bool `json:"notification_enabled"`
	NotificationSound   *bool `json:"notification_sound"`

	UseRFIDConfirmation       *bool `json:"use_rfid_confirmation"`
	ConfirmationWindowMinutes *int  `json:"confirmation_window_minutes"`
}

type mealTimesResponse struct {
	Breakfast string `json:"breakfast,omitempty"`
	Lunch     string `json:"lunch,omitempty"`
	Dinner    string `json:"dinner,omitempty"`
}

type preferencesResponse struct {
	WakeTime  string `json:"wake_time"`
	SleepTime string `json:"sleep_time"`

	MealTimes mealTimesResponse `json:"meal_times"`

	NotificationEnabled bool `json:"notification_enabled"`
	NotificationSound   bool `json:"notification_sound"`

	UseRFIDConfirmation       bool `json:"use_rfid_confirmation"`
	ConfirmationWindowMinutes int  `json:"confirmation_window_minutes"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func getPreferencesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toPreferencesResponse(p))
	}
}

func updatePreferencesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updatePreferencesRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			WakeTime:                  req.WakeTime,
			SleepTime:                 req.SleepTime,
			NotificationEnabled:       req.NotificationEnabled,
			NotificationSound:         req.NotificationSound,
			UseRFIDConfirmation:       req.UseRFIDConfirmation,
			ConfirmationWindowMinutes: req.ConfirmationWindowMinutes,
		}
		if req.MealTimes != nil {
			in.Breakfast = req.MealTimes.Breakfast
			in.Lunch = req.MealTimes.Lunch
			in.Dinner = req.MealTimes.Dinner
		}

		p, err := svc.Update(r.Context(), claims.UserID, in)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "times must be HH:MM (24h)", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toPreferencesResponse(p))
	}
}

func toPreferencesResponse(p Preferences) preferencesResponse {
	resp := preferencesResponse{
		WakeTime:  p.WakeTime,
		SleepTime: p.SleepTime,
		MealTimes: mealTimesResponse{
			Breakfast: p.MealTimes.Breakfast,
			Lunch:     p.MealTimes.Lunch,
			Dinner:    p.MealTimes.Dinner,
		},
		NotificationEnabled:       p.NotificationEnabled,
		NotificationSound:         p.NotificationSound,
		UseRFIDConfirmation:       p.UseRFIDConfirmation,
		ConfirmationWindowMinutes: p.ConfirmationWindowMinutes,
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// (ver nota en medications/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
